// keys/keys_test.go
package keys

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestTreeKeys 测试树节点 key 函数
func TestTreeKeys(t *testing.T) {
	t.Run("KeyTreeNode", func(t *testing.T) {
		assert.Equal(t, "test_tree_5_20", KeyTreeNode("test", 5, 20))
		assert.Equal(t, "test_tree_0_0", KeyTreeNode("test", 0, 0))
	})

	t.Run("KeyTreeNodePrefix", func(t *testing.T) {
		assert.Equal(t, "test_tree_", KeyTreeNodePrefix("test"))
	})

	t.Run("Distinct", func(t *testing.T) {
		// 1_12 与 11_2 不能撞
		assert.NotEqual(t, KeyTreeNode("p", 1, 12), KeyTreeNode("p", 11, 2))
		assert.NotEqual(t, KeyTreeNode("a", 1, 2), KeyTreeNode("b", 1, 2))
	})

	t.Run("ParseKeyTreeNode", func(t *testing.T) {
		level, index, ok := ParseKeyTreeNode("test", "test_tree_5_20")
		assert.True(t, ok)
		assert.Equal(t, 5, level)
		assert.Equal(t, uint64(20), index)

		_, _, ok = ParseKeyTreeNode("test", "other_tree_5_20")
		assert.False(t, ok)
		_, _, ok = ParseKeyTreeNode("test", "test_tree_x_20")
		assert.False(t, ok)
		_, _, ok = ParseKeyTreeNode("test", "test_tree_5")
		assert.False(t, ok)
	})
}

// TestUpdateLogKeys 测试更新日志 key 函数
func TestUpdateLogKeys(t *testing.T) {
	assert.Equal(t, "test_update_log_index", KeyUpdateLog("test"))
	assert.Equal(t, "test_update_log_element_4", KeyUpdateLogElement("test", 4))
	assert.Equal(t, "test_update_log_element_", KeyUpdateLogElementPrefix("test"))
	assert.NotEqual(t, KeyUpdateLog("test"), KeyUpdateLogElement("test", 0))
	assert.NotEqual(t, KeyTreeNode("test", 0, 0), KeyUpdateLogElement("test", 0))
}
