package test

import (
	"testing"

	"pulse_social/ratelimit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRateLimit_FollowQuota 测试关注动作的独立限流
//
// 测试目标：
// - follow 配额耗尽后返回 429 和 RATE_LIMITED
// - 其他动作类别不受影响
//
// 验证闭环：
// 1. 配置 follow 配额为 3
// 2. 前 3 次关注成功，第 4 次 429
// 3. 同一用户的 block 请求仍然成功
// 4. 其他用户不受影响
func TestRateLimit_FollowQuota(t *testing.T) {
	app := newTestApp(map[string]int{
		ratelimit.ActionFollow:  3,
		ratelimit.ActionBlock:   100,
		ratelimit.ActionUnblock: 100,
		ratelimit.ActionMute:    100,
		ratelimit.ActionGeneral: 10000,
	})
	defer app.Close()

	userA := createTestUser()

	targets := make([]*TestUser, 5)
	for i := range targets {
		targets[i] = createTestUser()
	}

	// 前 3 次成功
	for i := 0; i < 3; i++ {
		resp, _, err := app.httpRequest("POST", APIPrefix+"/follow/"+targets[i].ID, userA.Token, nil)
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode, "request %d", i)
	}

	// 第 4 次触发限流
	resp, body, err := app.httpRequest("POST", APIPrefix+"/follow/"+targets[3].ID, userA.Token, nil)
	require.NoError(t, err)
	assert.Equal(t, 429, resp.StatusCode)
	assert.Equal(t, "RATE_LIMITED", errorCode(body))

	// block 类别独立计数
	resp, _, err = app.httpRequest("POST", APIPrefix+"/block/"+targets[4].ID, userA.Token, nil)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	// 其他用户不受影响
	userB := createTestUser()
	resp, _, err = app.httpRequest("POST", APIPrefix+"/follow/"+targets[0].ID, userB.Token, nil)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
}

// TestRateLimit_OnlyCountsSameAction 测试限流按动作类别计数，查询不占配额
func TestRateLimit_OnlyCountsSameAction(t *testing.T) {
	app := newTestApp(map[string]int{
		ratelimit.ActionFollow:  2,
		ratelimit.ActionBlock:   100,
		ratelimit.ActionUnblock: 100,
		ratelimit.ActionMute:    100,
		ratelimit.ActionGeneral: 10000,
	})
	defer app.Close()

	userA := createTestUser()
	userB := createTestUser()

	// 大量查询不消耗 follow 配额
	for i := 0; i < 10; i++ {
		resp, _, err := app.httpRequest("GET", APIPrefix+"/relationship/"+userB.ID, userA.Token, nil)
		require.NoError(t, err)
		require.Equal(t, 200, resp.StatusCode)
	}

	resp, _, err := app.httpRequest("POST", APIPrefix+"/follow/"+userB.ID, userA.Token, nil)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
}
