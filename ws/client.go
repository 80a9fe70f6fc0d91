package ws

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// WebSocket bağlantı sabitleri
const (
	// writeWait: Bir mesajı yazmak için maksimum bekleme süresi.
	writeWait = 10 * time.Second

	// pongWait: Client'ın heartbeat göndermesi için beklenen maksimum süre.
	// 3 heartbeat kaçırma = 30s × 3 = 90s.
	pongWait = 90 * time.Second

	// maxMessageSize: Client'ın gönderebileceği maksimum mesaj boyutu (byte).
	maxMessageSize = 4096

	// sendBufferSize: Her client'ın send channel buffer boyutu.
	// Buffer doluysa client yavaş demektir — event düşer, bağlantı kapatılır.
	sendBufferSize = 256

	// roomAuthTimeout: room_join yetki kontrolünün DB sorgusu için üst sınır.
	roomAuthTimeout = 5 * time.Second
)

// Client, tek bir WebSocket bağlantısını temsil eder.
//
// Her bağlantı için iki goroutine çalışır:
// - ReadPump: client'dan gelen op'ları okur ve işler
// - WritePump: send channel'dan gelen event'leri WebSocket'e yazar
//
// gorilla/websocket aynı anda tek okuma ve tek yazma destekler;
// iki goroutine bu yüzden ayrılmıştır.
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	userID   string
	username string

	// send: client'a gidecek marshal edilmiş event'lerin buffer'ı.
	send chan []byte

	// rooms: bu bağlantının abone olduğu odalar. Sadece hub.mu
	// altında değiştirilir.
	rooms map[string]bool

	// closed: send channel'ı kapatıldı mı. Sadece hub.mu altında
	// yazılır ve okunur — flag olmadan ReadPump'ın heartbeat cevabı,
	// hub'ın eviction kapatmasıyla yarışıp kapalı channel'a yazabilir.
	closed bool

	mu sync.Mutex // conn.WriteMessage çağrılarını korur
}

// ReadPump, bağlantıdan gelen op'ları okur. Bağlantı kapanana kadar
// bloklar; kapanınca client hub'dan çıkarılır.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)

	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		log.Printf("[ws] failed to set read deadline for user %s: %v", c.userID, err)
		return
	}

	for {
		_, rawMessage, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[ws] unexpected close for user %s: %v", c.userID, err)
			}
			return
		}

		var event Event
		if err := json.Unmarshal(rawMessage, &event); err != nil {
			log.Printf("[ws] invalid message from user %s: %v", c.userID, err)
			continue
		}

		c.handleEvent(event)
	}
}

func (c *Client) handleEvent(event Event) {
	switch event.Op {
	case OpHeartbeat:
		if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			log.Printf("[ws] failed to set read deadline for user %s: %v", c.userID, err)
			return
		}
		c.sendEvent(Event{Op: OpHeartbeatAck})

	case OpRoomJoin:
		c.handleRoomJoin(event)

	case OpRoomLeave:
		c.handleRoomLeave(event)

	case OpPresenceEnter:
		c.handlePresence(event, true)

	case OpPresenceLeave:
		c.handlePresence(event, false)

	case OpTyping:
		c.handleTyping(event)

	default:
		log.Printf("[ws] unknown op from user %s: %s", c.userID, event.Op)
	}
}

func (c *Client) handleRoomJoin(event Event) {
	var data RoomData
	if !decodeData(event, &data) || data.Room == "" {
		return
	}

	// Yetki kontrolü DB'ye gider — ReadPump'ı süresiz bloklamasın.
	ctx, cancel := context.WithTimeout(context.Background(), roomAuthTimeout)
	defer cancel()

	if !c.hub.JoinRoom(ctx, c, data.Room) {
		log.Printf("[ws] room join denied: user=%s room=%s", c.userID, data.Room)
	}
}

func (c *Client) handleRoomLeave(event Event) {
	var data RoomData
	if !decodeData(event, &data) || data.Room == "" {
		return
	}

	c.hub.LeaveRoom(c, data.Room)
}

func (c *Client) handlePresence(event Event, enter bool) {
	var data PresenceData
	if !decodeData(event, &data) || data.ServerID == "" {
		return
	}

	if enter {
		c.hub.EnterPresence(data.ServerID, c.userID)
	} else {
		c.hub.LeavePresence(data.ServerID, c.userID)
	}
}

func (c *Client) handleTyping(event Event) {
	var data TypingData
	if !decodeData(event, &data) || data.ChannelID == "" {
		return
	}

	c.hub.BroadcastToChannel(data.ChannelID, Event{
		Op: OpTypingStart,
		Data: TypingStartData{
			UserID:    c.userID,
			Username:  c.username,
			ChannelID: data.ChannelID,
		},
	})
}

// decodeData, event.Data'yı (any) hedef struct'a parse eder.
// any tipinden doğrudan cast edilemez; marshal + unmarshal en güvenlisi.
func decodeData(event Event, target any) bool {
	dataBytes, err := json.Marshal(event.Data)
	if err != nil {
		return false
	}
	return json.Unmarshal(dataBytes, target) == nil
}

// sendEvent, client'a tek bir event gönderir.
//
// Gönderim hub.mu altında yapılır: close(c.send) de aynı mutex altında
// olduğu için kapalı channel'a yazma yarışı imkansızdır.
func (c *Client) sendEvent(event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("[ws] failed to marshal event for user %s: %v", c.userID, err)
		return
	}

	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()

	if c.closed {
		return
	}

	select {
	case c.send <- data:
	default:
		log.Printf("[ws] send buffer full for user %s, dropping connection", c.userID)
		go func() { c.hub.unregister <- c }()
	}
}

// WritePump, send channel'dan gelen event'leri WebSocket'e yazar.
func (c *Client) WritePump() {
	defer c.conn.Close()

	for {
		message, ok := <-c.send
		if !ok {
			// Channel kapatıldı — hub client'ı çıkardı
			c.writeMessage(websocket.CloseMessage, nil)
			return
		}

		if err := c.writeMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
}

// writeMessage — gorilla/websocket conn'a aynı anda birden fazla yazma
// yasaktır, mutex ile korunur.
func (c *Client) writeMessage(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteMessage(messageType, data)
}
