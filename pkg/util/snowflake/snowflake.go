package snowflake

import (
	"sync"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"
)

var (
	node     *snowflake.Node
	nodeOnce sync.Once
	machine  int64 = 1
)

// Init 初始化雪花算法节点
// 应在程序启动时调用一次
func Init(machineID int64) {
	machine = machineID
	nodeOnce.Do(func() {
		if machine < 0 || machine > 1023 {
			machine = 1 // 默认节点 ID
			zap.L().Warn("Invalid MachineID in config, using default value 1")
		}
		var err error
		node, err = snowflake.NewNode(machine)
		if err != nil {
			zap.L().Fatal("Failed to initialize snowflake node", zap.Error(err))
		}
	})
}

// GenerateID 生成雪花 ID (int64)
func GenerateID() int64 {
	if node == nil {
		Init(machine)
	}
	return node.Generate().Int64()
}
