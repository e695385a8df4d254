// Package nestform flattens structured values into the bracket-keyed form
// encoding used by Conduit-style RPC endpoints:
//
//	constraints[ids][0]=100&constraints[ids][1]=200&attachments[subscribers]=1
//
// Package nestform provides:
//
// - A closed value model (Value) covering scalars, optionals, sequences,
// maps, structs and the three enum variant shapes
// - Encode, a total visitor over that model producing ordered Pairs
// - Encoder, the same traversal exposed one member at a time
// - ValueOf/Marshal, a reflection adapter for tagged Go structs
// - Unflatten, a reference decoder used to check round trips
//
// Design policy:
// - Keep only public APIs in the root package; put token/tree plumbing under internal/.
// - Place document sources under source/, the RPC request builder under transport/
// and the CLI under cmd/nestform.
// - Prefer black-box testing against public APIs.
//
// Typical usage:
//
//	pairs, err := nestform.Marshal(req)
//	body := pairs.Encode()
//
//	v := nestform.Struct(nestform.F("badgers", nestform.Seq(nestform.String("mushroom"))))
//	pairs, err = nestform.Encode(v) // badgers[0]=mushroom
package nestform
