package domain

import "encoding/json"

// RawKind 标记原始邮件载荷的形态。
type RawKind int

const (
	// RawStructured 结构化记录（JSON 对象）
	RawStructured RawKind = iota
	// RawText 多行文本块
	RawText
)

// RawMessage 是网关返回的未归一化邮件载荷。
//
// 外部服务的响应形态不稳定：同一个 messages 数组里可能混杂 JSON
// 对象与纯文本块。这里只做带标签的变体区分，字段归一化交给
// ingest 包，使脆弱的解析约定与去重逻辑互相隔离。
type RawMessage struct {
	Kind   RawKind
	Fields map[string]any
	Text   string
}

// UnmarshalJSON 按对象、字符串、其它标量的顺序尝试解码。
func (m *RawMessage) UnmarshalJSON(data []byte) error {
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err == nil {
		m.Kind = RawStructured
		m.Fields = fields
		return nil
	}

	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		m.Kind = RawText
		m.Text = text
		return nil
	}

	// 数字等其它标量按原样文本兜底
	m.Kind = RawText
	m.Text = string(data)
	return nil
}

// StructuredRaw 构造结构化变体（测试与内部构造用）。
func StructuredRaw(fields map[string]any) RawMessage {
	return RawMessage{Kind: RawStructured, Fields: fields}
}

// TextRaw 构造文本块变体（测试与内部构造用）。
func TextRaw(text string) RawMessage {
	return RawMessage{Kind: RawText, Text: text}
}
