package model

import "encoding/json"

// OptionalString はJSONオブジェクトのキーの有無を区別できる文字列値。
// キーが存在しない場合はSetがfalseのままになる。
type OptionalString struct {
	Set     bool   // キーが存在した
	Null    bool   // 値がnullだった
	Invalid bool   // 値が文字列でもnullでもなかった
	Value   string // 文字列値
}

// Some は値を持つOptionalStringを返す。テストやクライアント側の組み立てで使用する。
func Some(v string) OptionalString {
	return OptionalString{Set: true, Value: v}
}

// UnmarshalJSON はjson.Unmarshalerを実装する。
// 型が合わない値はエラーにせずInvalidとして記録し、検証層に判断を委ねる。
func (o *OptionalString) UnmarshalJSON(b []byte) error {
	*o = OptionalString{Set: true}
	if string(b) == "null" {
		o.Null = true
		return nil
	}
	if err := json.Unmarshal(b, &o.Value); err != nil {
		o.Invalid = true
		o.Value = ""
	}
	return nil
}

// Present はキーが存在し、値が文字列だった場合にtrueを返す。
func (o OptionalString) Present() bool {
	return o.Set && !o.Null && !o.Invalid
}
