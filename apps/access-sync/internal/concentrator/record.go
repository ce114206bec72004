package concentrator

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Record はコマンド結果の1レコード（フィールド名→文字列値）。
type Record map[string]string

// Get は指定フィールドの値を返す。存在しない場合は空文字列。
func (r Record) Get(key string) string {
	return r[key]
}

// Bool は指定フィールドを真偽値として解釈する。
func (r Record) Bool(key string) bool {
	switch r[key] {
	case "true", "yes":
		return true
	default:
		return false
	}
}

// decodeRecords はレスポンスボディをレコード列に変換する。
// 配列は0件以上、オブジェクトは1件、空ボディは0件として扱う。
func decodeRecords(body []byte) ([]Record, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return []Record{}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	switch body[0] {
	case '[':
		var raw []map[string]any
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("%w: json unmarshal: %v", ErrInvalidResponse, err)
		}
		records := make([]Record, 0, len(raw))
		for _, m := range raw {
			records = append(records, toRecord(m))
		}
		return records, nil
	case '{':
		var raw map[string]any
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("%w: json unmarshal: %v", ErrInvalidResponse, err)
		}
		return []Record{toRecord(raw)}, nil
	default:
		return nil, fmt.Errorf("%w: unexpected body %q", ErrInvalidResponse, truncate(body, 64))
	}
}

// toRecord はJSONオブジェクトを文字列マップに変換する。
func toRecord(m map[string]any) Record {
	r := make(Record, len(m))
	for k, v := range m {
		switch val := v.(type) {
		case nil:
			r[k] = ""
		case string:
			r[k] = val
		case json.Number:
			r[k] = val.String()
		case bool:
			if val {
				r[k] = "true"
			} else {
				r[k] = "false"
			}
		default:
			b, err := json.Marshal(val)
			if err != nil {
				r[k] = fmt.Sprint(val)
				continue
			}
			r[k] = string(b)
		}
	}
	return r
}

func truncate(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	return b[:n]
}
