package i18n

import "sync"

// Translator retrieves localized messages for error codes.
// data provides optional metadata to embed in the message (for example,
// "kind").
type Translator interface {
	Message(code string, data map[string]string) string
}

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ lang string }

func (t dictTranslator) Message(code string, data map[string]string) string {
	switch t.lang {
	case "ja":
		switch code {
		case "unsupported_key":
			return "ネストされたフォームキーに使用できない型です"
		case "value_before_key":
			return "キーより先に値がシリアライズされました"
		case "depth_exceeded":
			return "最大深度を超えました"
		case "unsupported_type":
			return "サポートされていない型です"
		case "malformed_key":
			return "ブラケットキーの形式が不正です"
		case "conflict":
			return "キーパスが競合しています"
		case "parse_error":
			return "解析エラー"
		case "duplicate_key":
			return "キーが重複しています"
		}
	default: // "en"
		switch code {
		case "unsupported_key":
			return "unsupported key type for nested form key"
		case "value_before_key":
			return "value serialized before key"
		case "depth_exceeded":
			return "max depth exceeded"
		case "unsupported_type":
			return "unsupported type"
		case "malformed_key":
			return "malformed bracket key"
		case "conflict":
			return "key path used as both leaf and container"
		case "parse_error":
			return "parse error"
		case "duplicate_key":
			return "duplicate key"
		}
	}
	return code
}

var (
	mu                           = sync.RWMutex{}
	currentTranslator Translator = dictTranslator{lang: "en"}
)

// SetLanguage switches the built-in Translator language ("en"/"ja").
func SetLanguage(lang string) {
	if lang != "ja" {
		lang = "en"
	}
	mu.Lock()
	currentTranslator = dictTranslator{lang: lang}
	mu.Unlock()
}

// SetTranslator replaces the Translator implementation (not limited to the
// dictionary version).
func SetTranslator(tr Translator) {
	if tr == nil {
		tr = dictTranslator{lang: "en"}
	}
	mu.Lock()
	currentTranslator = tr
	mu.Unlock()
}

// T fetches a message for the given code using the current Translator.
func T(code string, data map[string]string) string {
	mu.RLock()
	tr := currentTranslator
	mu.RUnlock()
	return tr.Message(code, data)
}
