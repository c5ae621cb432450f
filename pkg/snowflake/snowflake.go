package snowflake

import (
	"fmt"
	"strconv"
	"sync"
	"time"
)

// Node 雪花ID生成器，用于请求ID
// 64位ID结构：
// 1位符号位(0) + 41位时间戳 + 10位机器ID + 12位序列号
type Node struct {
	mu        sync.Mutex
	epoch     int64 // 起始时间戳（毫秒）
	timestamp int64 // 上次生成ID的时间戳
	machineID int64 // 机器ID (0-1023)
	sequence  int64 // 序列号 (0-4095)
	now       func() int64
}

const (
	machineIDBits = 10
	sequenceBits  = 12

	maxMachineID = -1 ^ (-1 << machineIDBits) // 1023
	maxSequence  = -1 ^ (-1 << sequenceBits)  // 4095

	machineIDShift = sequenceBits
	timestampShift = sequenceBits + machineIDBits
)

// Epoch 起始时间：2025-01-01 00:00:00 UTC
var Epoch = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC).UnixMilli()

// NewNode 创建雪花ID生成器
func NewNode(machineID int64) (*Node, error) {
	if machineID < 0 || machineID > maxMachineID {
		return nil, fmt.Errorf("machineID必须在0-%d之间，当前值：%d", maxMachineID, machineID)
	}

	return &Node{
		epoch:     Epoch,
		machineID: machineID,
		now:       func() int64 { return time.Now().UnixMilli() },
	}, nil
}

// NextID 生成下一个ID
func (n *Node) NextID() (int64, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	now := n.now()

	// 时钟回拨
	if now < n.timestamp {
		return 0, fmt.Errorf("时钟回拨：当前时间 %d < 上次时间 %d", now, n.timestamp)
	}

	if now == n.timestamp {
		n.sequence = (n.sequence + 1) & maxSequence
		if n.sequence == 0 {
			// 序列号溢出，等待下一毫秒
			for now <= n.timestamp {
				time.Sleep(100 * time.Microsecond)
				now = n.now()
			}
		}
	} else {
		n.sequence = 0
	}

	n.timestamp = now

	diff := now - n.epoch
	if diff < 0 {
		return 0, fmt.Errorf("当前时间早于起始时间")
	}

	return (diff << timestampShift) | (n.machineID << machineIDShift) | n.sequence, nil
}

// NextString 生成字符串形式的ID，失败时返回空串
func (n *Node) NextString() string {
	id, err := n.NextID()
	if err != nil {
		return ""
	}
	return strconv.FormatInt(id, 10)
}

// Parse 解析雪花ID，返回时间、机器ID、序列号
func Parse(id int64) (t time.Time, machineID int64, sequence int64) {
	sequence = id & maxSequence
	machineID = (id >> machineIDShift) & maxMachineID
	t = time.UnixMilli((id >> timestampShift) + Epoch)
	return
}
