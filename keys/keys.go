// keys/keys.go
// 统一的 Key 定义包，树引擎与存储后端共同使用
package keys

import (
	"fmt"
	"strconv"
	"strings"
)

// ===================== 树节点 =====================

// KeyTreeNode 树节点
// 例：<prefix>_tree_<level>_<index>
// 格式与已落盘的数据保持兼容，不要修改
func KeyTreeNode(prefix string, level int, index uint64) string {
	return fmt.Sprintf("%s_tree_%d_%d", prefix, level, index)
}

// KeyTreeNodePrefix 某个命名空间下全部树节点的前缀
// 例：<prefix>_tree_
func KeyTreeNodePrefix(prefix string) string {
	return prefix + "_tree_"
}

// ParseKeyTreeNode 从节点 Key 中解析出 level 和 index
// prefix 必须与生成 Key 时一致；不匹配时 ok=false
func ParseKeyTreeNode(prefix, key string) (level int, index uint64, ok bool) {
	rest, found := strings.CutPrefix(key, KeyTreeNodePrefix(prefix))
	if !found {
		return 0, 0, false
	}
	lv, idx, found := strings.Cut(rest, "_")
	if !found {
		return 0, 0, false
	}
	l, err := strconv.Atoi(lv)
	if err != nil || l < 0 {
		return 0, 0, false
	}
	i, err := strconv.ParseUint(idx, 10, 64)
	if err != nil {
		return 0, 0, false
	}
	return l, i, true
}

// ===================== 更新日志 =====================

// KeyUpdateLog 更新日志指针（最近一次生效的日志序号）
// 例：<prefix>_update_log_index
func KeyUpdateLog(prefix string) string {
	return prefix + "_update_log_index"
}

// KeyUpdateLogElement 单条更新日志
// 例：<prefix>_update_log_element_<seq>
func KeyUpdateLogElement(prefix string, seq int64) string {
	return fmt.Sprintf("%s_update_log_element_%d", prefix, seq)
}

// KeyUpdateLogElementPrefix 更新日志条目前缀
// 例：<prefix>_update_log_element_
func KeyUpdateLogElementPrefix(prefix string) string {
	return prefix + "_update_log_element_"
}
