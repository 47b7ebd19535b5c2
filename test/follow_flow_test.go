package test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================
// 基础功能 - 关注 / 取关
// ============================================

// TestFollow_BasicFlow 测试基础关注流程
//
// 测试目标：
// - A 关注 B 后关系类型变为 following
// - B 视角的关系类型是 followed_by
// - B 回关后双方都是 mutual
//
// 验证闭环：
// 1. A 关注 B，返回 200 和关系快照
// 2. A 查询关系，type=following
// 3. B 查询关系，type=followed_by
// 4. B 回关，双方 type=mutual
// 5. A 的关注列表和 B 的粉丝列表都包含对方
func TestFollow_BasicFlow(t *testing.T) {
	app := newTestApp(nil)
	defer app.Close()

	userA := createTestUser()
	userB := createTestUser()

	// 1. A 关注 B
	resp, body, err := app.httpRequest("POST", APIPrefix+"/follow/"+userB.ID, userA.Token, nil)
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode, string(body))

	// 2. A 视角 type=following
	resp, body, err = app.httpRequest("GET", APIPrefix+"/relationship/"+userB.ID, userA.Token, nil)
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "following", parseResponse(body)["type"])

	// 3. B 视角 type=followed_by
	resp, body, err = app.httpRequest("GET", APIPrefix+"/relationship/"+userA.ID, userB.Token, nil)
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "followed_by", parseResponse(body)["type"])

	// 4. B 回关后双方 mutual
	resp, _, err = app.httpRequest("POST", APIPrefix+"/follow/"+userA.ID, userB.Token, nil)
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)

	_, body, _ = app.httpRequest("GET", APIPrefix+"/relationship/"+userB.ID, userA.Token, nil)
	assert.Equal(t, "mutual", parseResponse(body)["type"])

	// 5. 列表闭环
	_, body, _ = app.httpRequest("GET", APIPrefix+"/users/"+userA.ID+"/following", userA.Token, nil)
	following := parseResponse(body)["user_ids"].([]interface{})
	assert.Contains(t, following, userB.ID)

	_, body, _ = app.httpRequest("GET", APIPrefix+"/users/"+userB.ID+"/followers", userA.Token, nil)
	followers := parseResponse(body)["user_ids"].([]interface{})
	assert.Contains(t, followers, userA.ID)
}

// TestFollow_SelfFollowRejected 测试自己关注自己被拒绝
func TestFollow_SelfFollowRejected(t *testing.T) {
	app := newTestApp(nil)
	defer app.Close()

	userA := createTestUser()

	resp, body, err := app.httpRequest("POST", APIPrefix+"/follow/"+userA.ID, userA.Token, nil)
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(body))
}

// TestFollow_InvalidTargetID 测试非法用户 ID 格式被拒绝
func TestFollow_InvalidTargetID(t *testing.T) {
	app := newTestApp(nil)
	defer app.Close()

	userA := createTestUser()

	// 太短
	resp, body, err := app.httpRequest("POST", APIPrefix+"/follow/ab", userA.Token, nil)
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(body))

	// 非法字符
	resp, body, err = app.httpRequest("POST", APIPrefix+"/follow/bad!id", userA.Token, nil)
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(body))
}

// TestFollow_Unfollow 测试取关后关系回到 none，重复取关幂等
func TestFollow_Unfollow(t *testing.T) {
	app := newTestApp(nil)
	defer app.Close()

	userA := createTestUser()
	userB := createTestUser()

	app.httpRequest("POST", APIPrefix+"/follow/"+userB.ID, userA.Token, nil)

	resp, _, err := app.httpRequest("DELETE", APIPrefix+"/follow/"+userB.ID, userA.Token, nil)
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)

	_, body, _ := app.httpRequest("GET", APIPrefix+"/relationship/"+userB.ID, userA.Token, nil)
	assert.Equal(t, "none", parseResponse(body)["type"])

	// 重复取关仍然 200
	resp, _, err = app.httpRequest("DELETE", APIPrefix+"/follow/"+userB.ID, userA.Token, nil)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
}

// TestFollow_Unauthorized 测试未认证请求被拒绝
func TestFollow_Unauthorized(t *testing.T) {
	app := newTestApp(nil)
	defer app.Close()

	userB := createTestUser()

	resp, _, err := app.httpRequest("POST", APIPrefix+"/follow/"+userB.ID, "", nil)
	require.NoError(t, err)
	assert.Equal(t, 401, resp.StatusCode)

	resp, _, err = app.httpRequest("POST", APIPrefix+"/follow/"+userB.ID, "not-a-jwt", nil)
	require.NoError(t, err)
	assert.Equal(t, 401, resp.StatusCode)
}

// ============================================
// 批量操作
// ============================================

// TestBulkFollow_PartialFailure 测试批量关注的部分失败语义
//
// 测试目标：
// - 单个目标失败不影响其他目标
// - 返回逐目标的结果数组，失败项带 error_code
//
// 验证闭环：
// 1. C 拉黑 A
// 2. A 批量关注 [B, D, C]
// 3. 整体返回 200，B/D 成功，C 失败且 error_code=CONFLICT
// 4. A 的关注数为 2
func TestBulkFollow_PartialFailure(t *testing.T) {
	app := newTestApp(nil)
	defer app.Close()

	userA := createTestUser()
	userB := createTestUser()
	userC := createTestUser()
	userD := createTestUser()

	// 1. C 拉黑 A
	resp, _, err := app.httpRequest("POST", APIPrefix+"/block/"+userA.ID, userC.Token, nil)
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)

	// 2. A 批量关注
	resp, body, err := app.httpRequest("POST", APIPrefix+"/follow/bulk", userA.Token, map[string]interface{}{
		"user_ids": []string{userB.ID, userD.ID, userC.ID},
	})
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode, string(body))

	results := parseResponse(body)["results"].([]interface{})
	require.Len(t, results, 3)

	first := results[0].(map[string]interface{})
	assert.Equal(t, true, first["success"])
	assert.Equal(t, userB.ID, first["target"])

	third := results[2].(map[string]interface{})
	assert.Equal(t, false, third["success"])
	assert.Equal(t, "CONFLICT", third["error_code"])

	// 4. 关注数闭环
	_, body, _ = app.httpRequest("GET", APIPrefix+"/users/"+userA.ID+"/following", userA.Token, nil)
	assert.Equal(t, float64(2), parseResponse(body)["count"])
}

// TestBulkFollow_SizeLimit 测试批量上限
func TestBulkFollow_SizeLimit(t *testing.T) {
	app := newTestApp(nil)
	defer app.Close()

	userA := createTestUser()

	targets := make([]string, 101)
	for i := range targets {
		targets[i] = fmt.Sprintf("bulk_target_%03d", i)
	}

	resp, body, err := app.httpRequest("POST", APIPrefix+"/follow/bulk", userA.Token, map[string]interface{}{
		"user_ids": targets,
	})
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)
	assert.Equal(t, "BULK_SIZE_EXCEEDED", errorCode(body))
}

// TestBulkUnfollow 测试批量取关
func TestBulkUnfollow(t *testing.T) {
	app := newTestApp(nil)
	defer app.Close()

	userA := createTestUser()
	userB := createTestUser()
	userC := createTestUser()

	app.httpRequest("POST", APIPrefix+"/follow/"+userB.ID, userA.Token, nil)
	app.httpRequest("POST", APIPrefix+"/follow/"+userC.ID, userA.Token, nil)

	resp, body, err := app.httpRequest("DELETE", APIPrefix+"/follow/bulk", userA.Token, map[string]interface{}{
		"user_ids": []string{userB.ID, userC.ID},
	})
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)

	results := parseResponse(body)["results"].([]interface{})
	for _, r := range results {
		assert.Equal(t, true, r.(map[string]interface{})["success"])
	}

	_, body, _ = app.httpRequest("GET", APIPrefix+"/users/"+userA.ID+"/following", userA.Token, nil)
	assert.Equal(t, float64(0), parseResponse(body)["count"])
}

// ============================================
// 分页
// ============================================

// TestFollowers_Pagination 测试粉丝列表游标分页
func TestFollowers_Pagination(t *testing.T) {
	app := newTestApp(nil)
	defer app.Close()

	target := createTestUser()
	fans := make([]*TestUser, 5)
	for i := range fans {
		fans[i] = createTestUser()
		resp, _, err := app.httpRequest("POST", APIPrefix+"/follow/"+target.ID, fans[i].Token, nil)
		require.NoError(t, err)
		require.Equal(t, 200, resp.StatusCode)
	}

	// 第一页
	_, body, _ := app.httpRequest("GET", APIPrefix+"/users/"+target.ID+"/followers?limit=2", target.Token, nil)
	page := parseResponse(body)
	assert.Equal(t, float64(2), page["count"])
	cursor := page["next_cursor"].(string)
	require.NotEmpty(t, cursor)

	// 翻到底收集全部
	seen := len(page["user_ids"].([]interface{}))
	for cursor != "" {
		_, body, _ = app.httpRequest("GET", APIPrefix+"/users/"+target.ID+"/followers?limit=2&cursor="+cursor, target.Token, nil)
		page = parseResponse(body)
		seen += len(page["user_ids"].([]interface{}))
		cursor, _ = page["next_cursor"].(string)
	}
	assert.Equal(t, 5, seen)
}

// TestFollowers_LimitValidation 测试 limit 超出范围被拒绝
func TestFollowers_LimitValidation(t *testing.T) {
	app := newTestApp(nil)
	defer app.Close()

	userA := createTestUser()

	resp, body, err := app.httpRequest("GET", APIPrefix+"/users/"+userA.ID+"/followers?limit=500", userA.Token, nil)
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(body))

	resp, _, err = app.httpRequest("GET", APIPrefix+"/users/"+userA.ID+"/followers?limit=abc", userA.Token, nil)
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)

	// 显式 limit=0 不回退到默认值，按越界拒绝
	resp, body, err = app.httpRequest("GET", APIPrefix+"/users/"+userA.ID+"/followers?limit=0", userA.Token, nil)
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(body))
}
