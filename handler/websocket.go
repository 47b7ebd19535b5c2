package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"pulse_social/middleware"
	"pulse_social/model"
	"pulse_social/service"
	"pulse_social/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// TODO: 生产环境需要检查 Origin
		return true
	},
}

// Client WebSocket 客户端
type Client struct {
	ID     uuid.UUID
	UserID string
	Conn   *websocket.Conn
	Send   chan []byte
	Hub    *Hub
	mu     sync.Mutex
	closed bool // Send channel 是否已关闭
}

// Hub WebSocket 连接管理中心：把关系事件实时推送给在线用户
type Hub struct {
	// 在线用户 map[userID]map[clientID]*Client（支持多设备）
	Clients map[string]map[uuid.UUID]*Client
	mu      sync.RWMutex

	// 最大连接数限制（每个用户）
	MaxConnectionsPerUser int

	// Redis 客户端，可为 nil（关闭跨 Pod 广播）
	rdb *redis.Client

	// 关系服务
	svc *service.FollowService

	// Pod ID（用于跨 Pod 广播去重）
	podID string

	// 停止 Pub/Sub 订阅
	stopPubSub chan struct{}
}

// Redis Pub/Sub channel 名称
const redisBroadcastChannel = "ws:relationship"

// BroadcastMessage 跨 Pod 广播消息格式
type BroadcastMessage struct {
	UserID  string `json:"user_id"`
	PodID   string `json:"pod_id"` // 发送方 Pod ID，用于去重
	Payload []byte `json:"payload"`
}

// NewHub 创建 Hub
func NewHub(svc *service.FollowService, rdb *redis.Client) *Hub {
	return &Hub{
		Clients:               make(map[string]map[uuid.UUID]*Client),
		MaxConnectionsPerUser: 18,
		rdb:                   rdb,
		svc:                   svc,
		podID:                 uuid.New().String(),
		stopPubSub:            make(chan struct{}),
	}
}

// Register 注册客户端（支持多设备，限制最大连接数）
func (h *Hub) Register(client *Client) {
	h.mu.Lock()

	if h.Clients[client.UserID] == nil {
		h.Clients[client.UserID] = make(map[uuid.UUID]*Client)
	}

	if len(h.Clients[client.UserID]) >= h.MaxConnectionsPerUser {
		h.mu.Unlock() // 先释放锁，再进行网络操作

		log.Printf("[ERROR] User %s exceeds max connections (%d), rejecting new connection (client ID: %s)",
			client.UserID, h.MaxConnectionsPerUser, client.ID)

		client.Conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure,
				fmt.Sprintf("Maximum %d devices allowed", h.MaxConnectionsPerUser)))
		client.Conn.Close()
		return
	}

	h.Clients[client.UserID][client.ID] = client
	deviceCount := len(h.Clients[client.UserID])
	totalUsers := len(h.Clients)
	h.mu.Unlock()

	log.Printf("User %s connected (client: %s), total devices: %d, total users: %d",
		client.UserID, client.ID, deviceCount, totalUsers)
}

// Unregister 注销客户端（支持多设备）
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()

	if userClients, exists := h.Clients[client.UserID]; exists {
		if _, found := userClients[client.ID]; found {
			delete(userClients, client.ID)

			if len(userClients) == 0 {
				delete(h.Clients, client.UserID)
				log.Printf("User %s disconnected (client: %s), all devices offline, total users: %d",
					client.UserID, client.ID, len(h.Clients))
			} else {
				log.Printf("User %s disconnected (client: %s), remaining devices: %d",
					client.UserID, client.ID, len(userClients))
			}
		}
	}

	h.mu.Unlock()

	// 安全关闭 Send channel
	client.mu.Lock()
	if !client.closed {
		close(client.Send)
		client.closed = true
	}
	client.mu.Unlock()
}

// SendToUser 发送消息给指定用户的所有设备
func (h *Hub) SendToUser(userID string, message []byte) bool {
	h.mu.RLock()
	userClients, exists := h.Clients[userID]
	if !exists || len(userClients) == 0 {
		h.mu.RUnlock()
		// 用户不在线（正常情况，不记录）
		return false
	}

	// 复制一份 client 列表，避免在遍历时发生并发修改 panic
	clientsCopy := make([]*Client, 0, len(userClients))
	for _, client := range userClients {
		clientsCopy = append(clientsCopy, client)
	}
	h.mu.RUnlock()

	sentToAny := false
	for _, client := range clientsCopy {
		select {
		case client.Send <- message:
			sentToAny = true
		default:
			// 发送通道满了，关闭该设备连接
			log.Printf("[ERROR] Send channel FULL: user=%s, client=%s, closing connection", userID, client.ID)
			go h.Unregister(client)
		}
	}

	return sentToAny
}

// BroadcastToUser 广播消息给用户（支持跨 Pod）
// 先尝试本地发送，同时 publish 到 Redis 让其他 Pod 也能收到
func (h *Hub) BroadcastToUser(userID string, message []byte) {
	h.SendToUser(userID, message)

	if h.rdb == nil {
		return
	}

	broadcastMsg := BroadcastMessage{
		UserID:  userID,
		PodID:   h.podID,
		Payload: message,
	}
	msgBytes, err := json.Marshal(broadcastMsg)
	if err != nil {
		log.Printf("[ERROR] Failed to marshal broadcast message: %v", err)
		return
	}

	ctx := context.Background()
	if err := h.rdb.Publish(ctx, redisBroadcastChannel, msgBytes).Err(); err != nil {
		log.Printf("[ERROR] Failed to publish to Redis: %v", err)
	}
}

// NotifyRelationshipEvent 把关系变更事件推给双方在线设备
func (h *Hub) NotifyRelationshipEvent(ev *model.RelationshipEvent) {
	response := map[string]interface{}{
		"type": "relationship_event",
		"data": ev,
	}
	responseData, err := json.Marshal(response)
	if err != nil {
		log.Printf("[ERROR] Failed to marshal relationship event: %v", err)
		return
	}

	h.BroadcastToUser(ev.ActorID, responseData)

	// 拉黑和静音不通知对方
	if ev.Action == model.ActionBlock || ev.Action == model.ActionUnblock ||
		ev.Action == model.ActionMute || ev.Action == model.ActionUnmute {
		return
	}
	h.BroadcastToUser(ev.TargetID, responseData)
}

// IsUserOnline 检查用户是否在线（至少有一个设备在线）
func (h *Hub) IsUserOnline(userID string) bool {
	return h.DeviceCount(userID) > 0
}

// DeviceCount 用户当前在线的设备数
func (h *Hub) DeviceCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.Clients[userID])
}

// StartPubSub 启动 Redis Pub/Sub 订阅（跨 Pod 事件广播）
func (h *Hub) StartPubSub() {
	if h.rdb == nil {
		return
	}
	go func() {
		ctx := context.Background()
		pubsub := h.rdb.Subscribe(ctx, redisBroadcastChannel)
		defer pubsub.Close()

		log.Printf("[INFO] Pod %s started Redis Pub/Sub subscription", h.podID[:8])

		ch := pubsub.Channel()
		for {
			select {
			case <-h.stopPubSub:
				log.Printf("[INFO] Pod %s stopping Redis Pub/Sub subscription", h.podID[:8])
				return
			case msg := <-ch:
				if msg == nil {
					continue
				}
				h.handleBroadcastMessage([]byte(msg.Payload))
			}
		}
	}()
}

// StopPubSub 停止 Redis Pub/Sub 订阅
func (h *Hub) StopPubSub() {
	close(h.stopPubSub)
}

// handleBroadcastMessage 处理来自 Redis 的广播消息
func (h *Hub) handleBroadcastMessage(data []byte) {
	var msg BroadcastMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Printf("[ERROR] Failed to unmarshal broadcast message: %v", err)
		return
	}

	// 忽略自己发的消息（避免重复推送）
	if msg.PodID == h.podID {
		return
	}

	h.SendToUser(msg.UserID, msg.Payload)
}

// WSMessage WebSocket 消息格式
type WSMessage struct {
	Type string          `json:"type"` // 'heartbeat' | 'interaction' | 'relationship_query'
	Data json.RawMessage `json:"data"`
}

// HandleWebSocket 处理 WebSocket 连接
func HandleWebSocket(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 从 query 参数获取 token
		tokenString := c.Query("token")
		if tokenString == "" {
			utils.Unauthorized(c, "missing token")
			return
		}

		userID, err := middleware.ValidateToken(tokenString)
		if err != nil {
			utils.Unauthorized(c, "invalid token")
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("[ERROR] WebSocket upgrade failed for user %s: %v", userID, err)
			return
		}

		client := &Client{
			ID:     uuid.New(),
			UserID: userID,
			Conn:   conn,
			Send:   make(chan []byte, 256),
			Hub:    hub,
		}

		hub.Register(client)

		go client.readPump()
		go client.writePump()
	}
}

// readPump 从 WebSocket 读取消息
func (c *Client) readPump() {
	defer func() {
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived, websocket.CloseAbnormalClosure) {
				log.Printf("[ERROR] User %s WebSocket unexpected close error: %v", c.UserID, err)
			}
			break
		}

		var wsMsg WSMessage
		if err := json.Unmarshal(message, &wsMsg); err != nil {
			c.sendError("Invalid JSON format")
			continue
		}

		switch wsMsg.Type {
		case "heartbeat":
			// 心跳，读超时已由 PongHandler 处理，这里无需额外动作

		case "interaction":
			// 客户端直接上报互动（低延迟路径）
			c.handleInteraction(wsMsg.Data)

		case "relationship_query":
			// 查询与某用户的关系
			c.handleRelationshipQuery(wsMsg.Data)
		}
	}
}

// writePump 向 WebSocket 写入消息
func (c *Client) writePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				// Hub 关闭了通道
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			// 发送 ping 保持连接
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleInteraction 处理互动上报
func (c *Client) handleInteraction(data json.RawMessage) {
	var req struct {
		TargetID string  `json:"target_id"`
		Type     string  `json:"type"`
		Weight   float64 `json:"weight"`
	}
	if err := json.Unmarshal(data, &req); err != nil {
		c.sendError("Invalid interaction format")
		return
	}

	if _, err := c.Hub.svc.RecordInteraction(c.UserID, req.TargetID, req.Type, req.Weight); err != nil {
		c.sendError(err.Error())
	}
}

// handleRelationshipQuery 处理关系查询
func (c *Client) handleRelationshipQuery(data json.RawMessage) {
	var req struct {
		TargetID string `json:"target_id"`
	}
	if err := json.Unmarshal(data, &req); err != nil {
		c.sendError("Invalid query format")
		return
	}

	view, err := c.Hub.svc.GetRelationship(c.UserID, req.TargetID)
	if err != nil {
		c.sendError(err.Error())
		return
	}

	response := map[string]interface{}{
		"type": "relationship",
		"data": view,
	}
	responseData, _ := json.Marshal(response)

	select {
	case c.Send <- responseData:
	default:
		log.Printf("[ERROR] Failed to send relationship to user %s: channel full", c.UserID)
	}
}

// sendError 发送错误消息给客户端
func (c *Client) sendError(errMsg string) {
	response := map[string]interface{}{
		"type": "error",
		"data": map[string]string{
			"message": errMsg,
		},
	}
	responseData, _ := json.Marshal(response)

	select {
	case c.Send <- responseData:
	default:
		log.Printf("[ERROR] Failed to send error message to user %s: channel full", c.UserID)
	}
}
