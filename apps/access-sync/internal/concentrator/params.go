package concentrator

import (
	"bytes"
	"encoding/json"
	"strings"
)

// QueryPrefix はクエリ語を表すキー接頭辞（例: "?name"）。
const QueryPrefix = "?"

// queryMember はクエリ語をまとめるリクエストボディのメンバー名。
const queryMember = ".query"

// Param はコマンドの key=value パラメータ。
// Valueは不透明なリテラル文字列として扱い、分割や引用符付加は行わない。
type Param struct {
	Key   string
	Value string
}

// Params は順序付きのパラメータ列。
type Params []Param

// Arg は通常パラメータを生成する。
func Arg(key, value string) Param {
	return Param{Key: key, Value: value}
}

// Query は完全一致クエリ語を生成する。
func Query(key, value string) Param {
	return Param{Key: QueryPrefix + key, Value: value}
}

// MarshalJSON はパラメータ列をリクエストボディに変換する。
// 通常パラメータは挿入順のメンバー、クエリ語は挿入順に ".query" 配列へ
// "key=value" 形式で格納する。エスケープはここでのみ行う。
func (p Params) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	var query []string

	buf.WriteByte('{')
	n := 0
	for _, kv := range p {
		if strings.HasPrefix(kv.Key, QueryPrefix) {
			query = append(query, strings.TrimPrefix(kv.Key, QueryPrefix)+"="+kv.Value)
			continue
		}
		if n > 0 {
			buf.WriteByte(',')
		}
		if err := writeMember(&buf, kv.Key, kv.Value); err != nil {
			return nil, err
		}
		n++
	}

	if len(query) > 0 {
		if n > 0 {
			buf.WriteByte(',')
		}
		if err := writeMember(&buf, queryMember, query); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')

	return buf.Bytes(), nil
}

// writeMember は "key":value を書き込む。
func writeMember(buf *bytes.Buffer, key string, value any) error {
	k, err := encodeLiteral(key)
	if err != nil {
		return err
	}
	v, err := encodeLiteral(value)
	if err != nil {
		return err
	}
	buf.Write(k)
	buf.WriteByte(':')
	buf.Write(v)
	return nil
}

// encodeLiteral は値をJSONとしてエンコードする。
// HTMLエスケープは行わず、末尾の改行を除去する。
func encodeLiteral(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
