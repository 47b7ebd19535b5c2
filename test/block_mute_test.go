package test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================
// 拉黑
// ============================================

// TestBlock_CascadeClearsFollows 测试拉黑级联清除关注
//
// 测试目标：
// - 拉黑无条件清除双向关注和密友标记
// - 取消拉黑不恢复被清除的关注
//
// 验证闭环：
// 1. A 和 B 互关并标记密友
// 2. A 拉黑 B，A 视角 type=blocked，B 视角 type=blocked_by
// 3. 双方关注列表都已清空
// 4. A 取消拉黑，双方 type=none（关注不恢复）
func TestBlock_CascadeClearsFollows(t *testing.T) {
	app := newTestApp(nil)
	defer app.Close()

	userA := createTestUser()
	userB := createTestUser()

	// 1. 互关 + 密友
	app.httpRequest("POST", APIPrefix+"/follow/"+userB.ID, userA.Token, nil)
	app.httpRequest("POST", APIPrefix+"/follow/"+userA.ID, userB.Token, nil)
	resp, _, err := app.httpRequest("POST", APIPrefix+"/close-friends/"+userB.ID, userA.Token, nil)
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)

	// 2. 拉黑
	resp, body, err := app.httpRequest("POST", APIPrefix+"/block/"+userB.ID, userA.Token, map[string]interface{}{
		"reason": "spam",
	})
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)

	rel := parseResponse(body)["relationship"].(map[string]interface{})
	assert.Equal(t, false, rel["close_friends"])

	_, body, _ = app.httpRequest("GET", APIPrefix+"/relationship/"+userB.ID, userA.Token, nil)
	assert.Equal(t, "blocked", parseResponse(body)["type"])

	_, body, _ = app.httpRequest("GET", APIPrefix+"/relationship/"+userA.ID, userB.Token, nil)
	assert.Equal(t, "blocked_by", parseResponse(body)["type"])

	// 3. 关注列表清空
	_, body, _ = app.httpRequest("GET", APIPrefix+"/users/"+userA.ID+"/following", userA.Token, nil)
	assert.Equal(t, float64(0), parseResponse(body)["count"])
	_, body, _ = app.httpRequest("GET", APIPrefix+"/users/"+userB.ID+"/following", userB.Token, nil)
	assert.Equal(t, float64(0), parseResponse(body)["count"])

	// 4. 取消拉黑，关注不恢复
	resp, _, err = app.httpRequest("DELETE", APIPrefix+"/block/"+userB.ID, userA.Token, nil)
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)

	_, body, _ = app.httpRequest("GET", APIPrefix+"/relationship/"+userB.ID, userA.Token, nil)
	assert.Equal(t, "none", parseResponse(body)["type"])
}

// TestBlock_PreventsFollow 测试拉黑期间双向禁止关注
func TestBlock_PreventsFollow(t *testing.T) {
	app := newTestApp(nil)
	defer app.Close()

	userA := createTestUser()
	userB := createTestUser()

	app.httpRequest("POST", APIPrefix+"/block/"+userB.ID, userA.Token, nil)

	// 被拉黑方尝试关注
	resp, body, err := app.httpRequest("POST", APIPrefix+"/follow/"+userA.ID, userB.Token, nil)
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)
	assert.Equal(t, "CONFLICT", errorCode(body))

	// 拉黑方自己也不能关注
	resp, body, err = app.httpRequest("POST", APIPrefix+"/follow/"+userB.ID, userA.Token, nil)
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)
	assert.Equal(t, "CONFLICT", errorCode(body))
}

// TestBlock_ListAndIdempotentUnblock 测试拉黑列表和幂等取消
func TestBlock_ListAndIdempotentUnblock(t *testing.T) {
	app := newTestApp(nil)
	defer app.Close()

	userA := createTestUser()
	userB := createTestUser()

	app.httpRequest("POST", APIPrefix+"/block/"+userB.ID, userA.Token, nil)

	_, body, _ := app.httpRequest("GET", APIPrefix+"/blocks", userA.Token, nil)
	blocked := parseResponse(body)["user_ids"].([]interface{})
	assert.Contains(t, blocked, userB.ID)

	// 取消两次都返回 200
	for i := 0; i < 2; i++ {
		resp, _, err := app.httpRequest("DELETE", APIPrefix+"/block/"+userB.ID, userA.Token, nil)
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
	}

	_, body, _ = app.httpRequest("GET", APIPrefix+"/blocks", userA.Token, nil)
	assert.Equal(t, float64(0), parseResponse(body)["count"])
}

// TestBlock_WithSpamReport 测试附带垃圾举报的拉黑（无数据库时举报降级为日志）
func TestBlock_WithSpamReport(t *testing.T) {
	app := newTestApp(nil)
	defer app.Close()

	userA := createTestUser()
	userB := createTestUser()

	resp, _, err := app.httpRequest("POST", APIPrefix+"/block/"+userB.ID, userA.Token, map[string]interface{}{
		"reason":      "bot account",
		"report_spam": true,
	})
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
}

// ============================================
// 静音
// ============================================

// TestMute_DoesNotAffectFollow 测试静音不影响关注关系
//
// 测试目标：
// - 静音后关注关系保留，type 仍按关注状态判定
// - 对方完全感知不到被静音
//
// 验证闭环：
// 1. A 关注 B 后静音 B
// 2. A 视角 type=following（静音优先级低于关注）
// 3. A 的静音列表包含 B
// 4. B 视角 type=followed_by，B 的静音列表为空
// 5. 取消静音后列表为空
func TestMute_DoesNotAffectFollow(t *testing.T) {
	app := newTestApp(nil)
	defer app.Close()

	userA := createTestUser()
	userB := createTestUser()

	app.httpRequest("POST", APIPrefix+"/follow/"+userB.ID, userA.Token, nil)

	resp, _, err := app.httpRequest("POST", APIPrefix+"/mute/"+userB.ID, userA.Token, map[string]interface{}{
		"duration":         "7d",
		"include_reshares": true,
	})
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)

	_, body, _ := app.httpRequest("GET", APIPrefix+"/relationship/"+userB.ID, userA.Token, nil)
	assert.Equal(t, "following", parseResponse(body)["type"])

	_, body, _ = app.httpRequest("GET", APIPrefix+"/mutes", userA.Token, nil)
	muted := parseResponse(body)["user_ids"].([]interface{})
	assert.Contains(t, muted, userB.ID)

	_, body, _ = app.httpRequest("GET", APIPrefix+"/relationship/"+userA.ID, userB.Token, nil)
	assert.Equal(t, "followed_by", parseResponse(body)["type"])

	_, body, _ = app.httpRequest("GET", APIPrefix+"/mutes", userB.Token, nil)
	assert.Equal(t, float64(0), parseResponse(body)["count"])

	resp, _, err = app.httpRequest("DELETE", APIPrefix+"/mute/"+userB.ID, userA.Token, nil)
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)

	_, body, _ = app.httpRequest("GET", APIPrefix+"/mutes", userA.Token, nil)
	assert.Equal(t, float64(0), parseResponse(body)["count"])
}

// TestMute_WithoutFollow 测试不关注也能静音，type=muted
func TestMute_WithoutFollow(t *testing.T) {
	app := newTestApp(nil)
	defer app.Close()

	userA := createTestUser()
	userB := createTestUser()

	resp, _, err := app.httpRequest("POST", APIPrefix+"/mute/"+userB.ID, userA.Token, nil)
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)

	_, body, _ := app.httpRequest("GET", APIPrefix+"/relationship/"+userB.ID, userA.Token, nil)
	assert.Equal(t, "muted", parseResponse(body)["type"])
}

// TestMute_UnknownDuration 测试非法静音时长被拒绝
func TestMute_UnknownDuration(t *testing.T) {
	app := newTestApp(nil)
	defer app.Close()

	userA := createTestUser()
	userB := createTestUser()

	resp, body, err := app.httpRequest("POST", APIPrefix+"/mute/"+userB.ID, userA.Token, map[string]interface{}{
		"duration": "90d",
	})
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(body))
}

// ============================================
// 密友
// ============================================

// TestCloseFriend_RequiresMutual 测试密友要求双向关注
func TestCloseFriend_RequiresMutual(t *testing.T) {
	app := newTestApp(nil)
	defer app.Close()

	userA := createTestUser()
	userB := createTestUser()

	app.httpRequest("POST", APIPrefix+"/follow/"+userB.ID, userA.Token, nil)

	// 单向关注时拒绝
	resp, body, err := app.httpRequest("POST", APIPrefix+"/close-friends/"+userB.ID, userA.Token, nil)
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)
	assert.Equal(t, "CONFLICT", errorCode(body))

	// 互关后成功
	app.httpRequest("POST", APIPrefix+"/follow/"+userA.ID, userB.Token, nil)
	resp, _, err = app.httpRequest("POST", APIPrefix+"/close-friends/"+userB.ID, userA.Token, nil)
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)

	_, body, _ = app.httpRequest("GET", APIPrefix+"/relationship/"+userB.ID, userA.Token, nil)
	assert.Equal(t, "close_friends", parseResponse(body)["type"])

	// 取消密友回到 mutual
	resp, _, err = app.httpRequest("DELETE", APIPrefix+"/close-friends/"+userB.ID, userA.Token, nil)
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)

	_, body, _ = app.httpRequest("GET", APIPrefix+"/relationship/"+userB.ID, userA.Token, nil)
	assert.Equal(t, "mutual", parseResponse(body)["type"])
}
