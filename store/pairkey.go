// Package store 关系存储：内存权威数据，按规范化用户对分片加锁
// 每次变更都做 拷贝-校验-提交，违反不变量时整体回滚
package store

import "hash/fnv"

// PairKey 规范化用户对键（字典序，和用户传入顺序无关）
type PairKey struct {
	User1 string // 较小者
	User2 string
}

// NewPairKey 生成规范化键
func NewPairKey(a, b string) PairKey {
	if a <= b {
		return PairKey{User1: a, User2: b}
	}
	return PairKey{User1: b, User2: a}
}

// String 键的字符串形式（缓存键、日志用）
func (k PairKey) String() string {
	return k.User1 + ":" + k.User2
}

// shardIndex 键到分片的映射
func (k PairKey) shardIndex(shards int) int {
	h := fnv.New32a()
	h.Write([]byte(k.User1))
	h.Write([]byte{0})
	h.Write([]byte(k.User2))
	return int(h.Sum32()) % shards
}

// dirIndex actor 在规范对中的方向下标（0 = user1 发起，1 = user2 发起）
func (k PairKey) dirIndex(actorID string) int {
	if actorID == k.User1 {
		return 0
	}
	return 1
}
