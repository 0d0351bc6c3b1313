package tree

import (
	"encoding/json"
	"fmt"
	"strconv"
	"unicode/utf8"

	"github.com/tidwall/gjson"
	"google.golang.org/protobuf/encoding/protowire"

	"sbmt/config"
)

// Entry 一条更新日志：某个叶子从 OldElement 变为 NewElement
type Entry struct {
	Index      int64  `json:"index"`
	OldElement string `json:"old_element"`
	NewElement string `json:"new_element"`
}

// Codec 日志条目的序列化格式
type Codec interface {
	Name() string
	Encode(e Entry) ([]byte, error)
	Decode(data []byte) (Entry, error)
}

// CodecByName 按配置名返回编码器
func CodecByName(name string) (Codec, error) {
	switch name {
	case config.CodecJSON, "":
		return JSONCodec{}, nil
	case config.CodecProto:
		return ProtoCodec{}, nil
	}
	return nil, fmt.Errorf("%w: unknown log codec %q", ErrInvalidConfig, name)
}

// ============================================
// JSON 编码（默认，与已有数据兼容）
// ============================================

// JSONCodec {"index":N,"old_element":"..","new_element":".."}
type JSONCodec struct{}

func (JSONCodec) Name() string { return config.CodecJSON }

// Encode 拒绝非 UTF-8 元素：json.Marshal 会把它们替换成 U+FFFD，回滚时无法还原
func (JSONCodec) Encode(e Entry) ([]byte, error) {
	if !utf8.ValidString(e.OldElement) || !utf8.ValidString(e.NewElement) {
		return nil, fmt.Errorf("%w: json log codec needs UTF-8 elements, use the proto codec for raw bytes", ErrInvalidElement)
	}
	return json.Marshal(e)
}

// Decode 宽松解析：index 可以是数字或数字字符串，元素可以是字符串或数字
func (JSONCodec) Decode(data []byte) (Entry, error) {
	if !gjson.ValidBytes(data) {
		return Entry{}, fmt.Errorf("%w: invalid json entry", ErrCorruptLog)
	}
	res := gjson.GetManyBytes(data, "index", "old_element", "new_element")
	if !res[1].Exists() || !res[2].Exists() {
		return Entry{}, fmt.Errorf("%w: entry missing element fields", ErrCorruptLog)
	}
	if !res[0].Exists() {
		return Entry{}, fmt.Errorf("%w: entry missing index", ErrCorruptLog)
	}
	idx, err := strconv.ParseInt(res[0].String(), 10, 64)
	if err != nil {
		return Entry{}, fmt.Errorf("%w: bad index %q", ErrCorruptLog, res[0].Raw)
	}
	return Entry{
		Index:      idx,
		OldElement: res[1].String(),
		NewElement: res[2].String(),
	}, nil
}

// ============================================
// Protobuf wire 编码（紧凑格式）
// ============================================

const (
	fieldIndex      protowire.Number = 1
	fieldOldElement protowire.Number = 2
	fieldNewElement protowire.Number = 3
)

// ProtoCodec 字段 1 index(varint)，字段 2 old(bytes)，字段 3 new(bytes)
type ProtoCodec struct{}

func (ProtoCodec) Name() string { return config.CodecProto }

func (ProtoCodec) Encode(e Entry) ([]byte, error) {
	if e.Index < 0 {
		return nil, fmt.Errorf("%w: negative index %d", ErrInvalidIndex, e.Index)
	}
	b := make([]byte, 0, 16+len(e.OldElement)+len(e.NewElement))
	b = protowire.AppendTag(b, fieldIndex, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(e.Index))
	b = protowire.AppendTag(b, fieldOldElement, protowire.BytesType)
	b = protowire.AppendString(b, e.OldElement)
	b = protowire.AppendTag(b, fieldNewElement, protowire.BytesType)
	b = protowire.AppendString(b, e.NewElement)
	return b, nil
}

func (ProtoCodec) Decode(data []byte) (Entry, error) {
	var (
		e    Entry
		seen int
	)
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return Entry{}, fmt.Errorf("%w: %v", ErrCorruptLog, protowire.ParseError(n))
		}
		data = data[n:]

		switch {
		case num == fieldIndex && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return Entry{}, fmt.Errorf("%w: %v", ErrCorruptLog, protowire.ParseError(n))
			}
			e.Index = int64(v)
			seen |= 1
			data = data[n:]
		case (num == fieldOldElement || num == fieldNewElement) && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(data)
			if n < 0 {
				return Entry{}, fmt.Errorf("%w: %v", ErrCorruptLog, protowire.ParseError(n))
			}
			if num == fieldOldElement {
				e.OldElement = v
				seen |= 2
			} else {
				e.NewElement = v
				seen |= 4
			}
			data = data[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return Entry{}, fmt.Errorf("%w: %v", ErrCorruptLog, protowire.ParseError(n))
			}
			data = data[n:]
		}
	}
	if seen != 7 {
		return Entry{}, fmt.Errorf("%w: proto entry missing fields", ErrCorruptLog)
	}
	return e, nil
}
