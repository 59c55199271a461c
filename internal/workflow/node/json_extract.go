// Package node 提供工作流节点共享的模型输出处理工具
package node

import (
	"strings"
)

// ExtractJSONObject 截取模型输出中第一个括号平衡的 JSON 对象。
// 模型常在 JSON 前后夹杂说明文字或 ``` 代码块；字符串字面量中的括号不参与计数。
// 找不到完整对象时返回去除首尾空白的原文，由调用方的 json.Unmarshal 报错。
func ExtractJSONObject(s string) string {
	raw := strings.TrimSpace(s)
	start := strings.IndexByte(raw, '{')
	if start < 0 {
		return raw
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(raw); i++ {
		c := raw[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return raw[start : i+1]
			}
		}
	}
	return raw
}
