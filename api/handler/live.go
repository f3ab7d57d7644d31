package handler

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"linktrack/internal/eventbus"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// 管理面板可能部署在不同域名下
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsSubscriber 把总线事件写入websocket连接
type wsSubscriber struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (s *wsSubscriber) HandleEvent(event eventbus.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteJSON(gin.H{
		"type":      event.GetType(),
		"timestamp": event.GetTimestamp(),
		"data":      event.GetData(),
	})
}

// LiveFeed 实时访问事件推送端点
func LiveFeed(bus eventbus.EventBus) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Warnf("websocket upgrade failed: %v", err)
			return
		}

		subscriber := &wsSubscriber{conn: conn}
		if err := bus.Subscribe(subscriber); err != nil {
			conn.Close()
			return
		}

		// 读循环只用于感知连接关闭
		go func() {
			defer func() {
				_ = bus.Unsubscribe(subscriber)
				conn.Close()
			}()
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()
	}
}
