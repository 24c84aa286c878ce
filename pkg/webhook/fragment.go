package webhook

import (
	"errors"

	"github.com/tidwall/gjson"
)

// Fragment is a media fragment woven by the echo webhook.
type Fragment struct {
	ID          string `json:"fragmentId"`
	Name        string `json:"fragmentName"`
	Type        string `json:"fragmentType"` // audio, image, video
	MediaURL    string `json:"mediaUrl"`
	Description string `json:"initialDescription"`
	Revelation  string `json:"initialRevelation"`
}

var (
	// ErrFragmentDistorted means the fenced block was not valid JSON.
	ErrFragmentDistorted = errors.New("fragment block is not valid JSON")
	// ErrFragmentMissing means output carried no fenced JSON block.
	ErrFragmentMissing = errors.New("no fragment block in output")
	// ErrFragmentShape means the body is neither an output string nor a
	// fragment object.
	ErrFragmentShape = errors.New("unexpected fragment response")
)

// DecodeFragment reads a fragment sent either as a ```json block inside an
// "output" string or as a bare object carrying fragmentId.
func DecodeFragment(body []byte) (Fragment, error) {
	if !gjson.ValidBytes(body) {
		return Fragment{}, ErrUnrecognized
	}
	doc := gjson.ParseBytes(body)

	if out := doc.Get("output"); out.Type == gjson.String && out.Str != "" {
		m := fencedJSON.FindStringSubmatch(out.Str)
		if m == nil {
			return Fragment{}, ErrFragmentMissing
		}
		if !gjson.Valid(m[1]) {
			return Fragment{}, ErrFragmentDistorted
		}
		inner := gjson.Parse(m[1])
		if !inner.IsObject() {
			return Fragment{}, ErrFragmentDistorted
		}
		return fragmentOf(inner), nil
	}

	if doc.IsObject() && doc.Get("fragmentId").String() != "" {
		return fragmentOf(doc), nil
	}
	return Fragment{}, ErrFragmentShape
}

func fragmentOf(obj gjson.Result) Fragment {
	return Fragment{
		ID:          obj.Get("fragmentId").String(),
		Name:        obj.Get("fragmentName").String(),
		Type:        obj.Get("fragmentType").String(),
		MediaURL:    obj.Get("mediaUrl").String(),
		Description: obj.Get("initialDescription").String(),
		Revelation:  obj.Get("initialRevelation").String(),
	}
}

// DecodeRevelation reads {newRevelationText, emotion}, directly or nested
// the way DecodeReply accepts. ok is false when there is no revelation.
func DecodeRevelation(body []byte) (text, emotion string, ok bool) {
	obj, found := embedded(body)
	if !found {
		return "", "", false
	}
	v := obj.Get("newRevelationText")
	if v.Type != gjson.String || v.Str == "" {
		return "", "", false
	}
	return v.Str, obj.Get("emotion").String(), true
}
