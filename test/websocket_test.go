package test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================
// WebSocket 实时推送
// ============================================

// TestWebSocket_AuthRequired 测试 WS 连接需要合法 token
func TestWebSocket_AuthRequired(t *testing.T) {
	app := newTestApp(nil)
	defer app.Close()

	_, err := app.connectWebSocket("")
	assert.Error(t, err)

	_, err = app.connectWebSocket("not-a-jwt")
	assert.Error(t, err)

	userA := createTestUser()
	conn, err := app.connectWebSocket(userA.Token)
	require.NoError(t, err)
	conn.Close()
}

// TestWebSocket_FollowEventPushedToBothSides 测试关注事件推给双方
//
// 测试目标：
// - A 通过 HTTP 关注 B 后，A 和 B 的在线连接都收到 relationship_event
//
// 验证闭环：
// 1. A、B 各建立一个 WS 连接
// 2. A 关注 B
// 3. 两个连接都收到 action=follow 的事件，new_type=following
func TestWebSocket_FollowEventPushedToBothSides(t *testing.T) {
	app := newTestApp(nil)
	defer app.Close()

	userA := createTestUser()
	userB := createTestUser()

	wsA, err := app.connectWebSocket(userA.Token)
	require.NoError(t, err)
	defer wsA.Close()

	wsB, err := app.connectWebSocket(userB.Token)
	require.NoError(t, err)
	defer wsB.Close()

	app.waitOnline(t, userA.ID)
	app.waitOnline(t, userB.ID)

	resp, _, err := app.httpRequest("POST", APIPrefix+"/follow/"+userB.ID, userA.Token, nil)
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)

	msgA, err := wsReceiveMessageType(wsA, "relationship_event", 3*time.Second, 5)
	require.NoError(t, err)
	dataA := msgA["data"].(map[string]interface{})
	assert.Equal(t, "follow", dataA["action"])
	assert.Equal(t, userA.ID, dataA["actor_id"])
	assert.Equal(t, userB.ID, dataA["target_id"])
	assert.Equal(t, "following", dataA["new_type"])

	msgB, err := wsReceiveMessageType(wsB, "relationship_event", 3*time.Second, 5)
	require.NoError(t, err)
	assert.Equal(t, "follow", msgB["data"].(map[string]interface{})["action"])
}

// TestWebSocket_BlockEventNotPushedToTarget 测试拉黑事件不通知被拉黑方
func TestWebSocket_BlockEventNotPushedToTarget(t *testing.T) {
	app := newTestApp(nil)
	defer app.Close()

	userA := createTestUser()
	userB := createTestUser()

	wsB, err := app.connectWebSocket(userB.Token)
	require.NoError(t, err)
	defer wsB.Close()

	app.waitOnline(t, userB.ID)

	resp, _, err := app.httpRequest("POST", APIPrefix+"/block/"+userB.ID, userA.Token, nil)
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)

	// B 不应收到任何事件
	_, err = wsReceiveMessageType(wsB, "relationship_event", 500*time.Millisecond, 3)
	assert.Error(t, err)
}

// TestWebSocket_InteractionOverSocket 测试通过 WS 上报互动
func TestWebSocket_InteractionOverSocket(t *testing.T) {
	app := newTestApp(nil)
	defer app.Close()

	userA := createTestUser()
	userB := createTestUser()

	app.httpRequest("POST", APIPrefix+"/follow/"+userB.ID, userA.Token, nil)

	wsA, err := app.connectWebSocket(userA.Token)
	require.NoError(t, err)
	defer wsA.Close()

	err = wsSend(wsA, "interaction", map[string]interface{}{
		"target_id": userB.ID,
		"type":      "like",
		"weight":    1.0,
	})
	require.NoError(t, err)

	// 通过关系查询确认互动已入账
	deadline := time.Now().Add(2 * time.Second)
	for {
		err = wsSend(wsA, "relationship_query", map[string]interface{}{
			"target_id": userB.ID,
		})
		require.NoError(t, err)

		msg, rerr := wsReceiveMessageType(wsA, "relationship", time.Second, 5)
		require.NoError(t, rerr)
		rel := msg["data"].(map[string]interface{})["relationship"].(map[string]interface{})
		count := rel["user1_interaction_count"].(float64) + rel["user2_interaction_count"].(float64)
		if count >= 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("interaction was not recorded, count=%v", count)
		}
		time.Sleep(20 * time.Millisecond)
	}
}

// TestWebSocket_MultiDevice 测试同一用户多设备都收到事件
func TestWebSocket_MultiDevice(t *testing.T) {
	app := newTestApp(nil)
	defer app.Close()

	userA := createTestUser()
	userB := createTestUser()

	ws1, err := app.connectWebSocket(userB.Token)
	require.NoError(t, err)
	defer ws1.Close()

	ws2, err := app.connectWebSocket(userB.Token)
	require.NoError(t, err)
	defer ws2.Close()

	// 等两个设备都注册完成
	deadline := time.Now().Add(2 * time.Second)
	for app.hub.DeviceCount(userB.ID) < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	require.Equal(t, 2, app.hub.DeviceCount(userB.ID))

	resp, _, err := app.httpRequest("POST", APIPrefix+"/follow/"+userB.ID, userA.Token, nil)
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)

	msg1, err := wsReceiveMessageType(ws1, "relationship_event", 3*time.Second, 5)
	require.NoError(t, err)
	assert.Equal(t, "follow", msg1["data"].(map[string]interface{})["action"])

	msg2, err := wsReceiveMessageType(ws2, "relationship_event", 3*time.Second, 5)
	require.NoError(t, err)
	assert.Equal(t, "follow", msg2["data"].(map[string]interface{})["action"])
}
