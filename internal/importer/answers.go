package importer

import "sort"

// rawAnswer is one answer-like entry plus the key it was stored under (map form only)
type rawAnswer struct {
	key   string
	value interface{}
}

// answersInput is the boundary form of a question's "answers" field: either a
// sequence or an id-keyed mapping. Both flatten into an ordered entry list so
// nothing past this point inspects the shape again.
type answersInput interface {
	entries() []rawAnswer
}

type answerList []interface{}

func (l answerList) entries() []rawAnswer {
	out := make([]rawAnswer, 0, len(l))
	for _, v := range l {
		out = append(out, rawAnswer{value: v})
	}
	return out
}

type answerMap map[string]interface{}

// entries iterates in key order so generated ids do not depend on map order.
func (m answerMap) entries() []rawAnswer {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]rawAnswer, 0, len(m))
	for _, k := range keys {
		out = append(out, rawAnswer{key: k, value: m[k]})
	}
	return out
}

// toAnswersInput resolves the dynamic "answers" value. ok is false when the
// value is neither a sequence nor a mapping.
func toAnswersInput(v interface{}) (answersInput, bool) {
	switch t := v.(type) {
	case []interface{}:
		return answerList(t), true
	case map[string]interface{}:
		return answerMap(t), true
	case map[interface{}]interface{}:
		m := make(answerMap, len(t))
		for k, val := range t {
			ks, isStr := k.(string)
			if !isStr {
				return nil, false
			}
			m[ks] = val
		}
		return m, true
	}
	return nil, false
}

// asObject accepts both decoder map flavours (encoding/json and yaml.v3 with
// non-string keys).
func asObject(v interface{}) (map[string]interface{}, bool) {
	switch t := v.(type) {
	case map[string]interface{}:
		return t, true
	case map[interface{}]interface{}:
		m := make(map[string]interface{}, len(t))
		for k, val := range t {
			ks, isStr := k.(string)
			if !isStr {
				return nil, false
			}
			m[ks] = val
		}
		return m, true
	}
	return nil, false
}
