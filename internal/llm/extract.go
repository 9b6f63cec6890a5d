package llm

import "github.com/tidwall/gjson"

// ExtractAnswer reads the assistant text from the first choice of a
// chat-completions body. It accepts the message shape
// (choices[0].message.content) and the legacy completion shape
// (choices[0].text). Any other first choice is rendered as JSON.
// Missing, empty or invalid input yields "".
func ExtractAnswer(raw []byte) string {
	if !gjson.ValidBytes(raw) {
		return ""
	}
	choices := gjson.GetBytes(raw, "choices")
	if !choices.IsArray() {
		return ""
	}
	items := choices.Array()
	if len(items) == 0 {
		return ""
	}
	first := items[0]

	switch {
	case first.Get("message").IsObject():
		return text(first.Get("message.content"))
	case first.IsObject() && first.Get("text").Exists():
		return text(first.Get("text"))
	case first.Type == gjson.Null:
		return "{}"
	case first.Type == gjson.String:
		return first.Str
	default:
		return first.Raw
	}
}

// text renders a content field; null and absent become "".
func text(r gjson.Result) string {
	switch r.Type {
	case gjson.Null:
		return ""
	case gjson.String:
		return r.Str
	default:
		return r.Raw
	}
}
