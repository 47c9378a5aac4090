package market

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/PrecedenceMarkets/lexgate/internal/pkg/logger"
	"github.com/gorilla/websocket"
)

const (
	reconnBaseDelay = 1 * time.Second
	reconnMaxDelay  = 30 * time.Second
	pingPeriod      = 15 * time.Second
)

// BookCache keeps live order books for subscribed outcome tokens over the
// venue's market websocket. Reads never block on the connection: a token
// that is not cached yet returns nil and gets subscribed in the background.
//
// c.mu guards conn and all writes to it; gorilla conns do not tolerate
// concurrent writers. Each connection gets its own done channel, so the
// ping goroutine of a dead connection exits on teardown instead of
// lingering into the next one.
type BookCache struct {
	wsURL  string
	mu     sync.RWMutex
	conn   *websocket.Conn
	books  map[string]*Book
	subs   []string
	ctx    context.Context
	cancel context.CancelFunc
}

func NewBookCache(wsURL string) *BookCache {
	ctx, cancel := context.WithCancel(context.Background())
	return &BookCache{
		wsURL:  wsURL,
		books:  make(map[string]*Book),
		subs:   make([]string, 0),
		ctx:    ctx,
		cancel: cancel,
	}
}

func (c *BookCache) Start() {
	go c.runLoop()
}

func (c *BookCache) Stop() {
	c.cancel()
	c.mu.Lock()
	if c.conn != nil {
		c.conn.Close()
	}
	c.mu.Unlock()
}

// Subscribe registers token ids for live book updates.
func (c *BookCache) Subscribe(tokenIDs []string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	added := make([]string, 0, len(tokenIDs))
	for _, id := range tokenIDs {
		if _, known := c.books[id]; known {
			continue
		}
		c.books[id] = NewBook(id)
		c.subs = append(c.subs, id)
		added = append(added, id)
	}

	if len(added) > 0 && c.conn != nil {
		if err := c.sendSubscribeLocked(added); err != nil {
			logger.Error("market stream subscribe failed", "error", err)
		}
	}
}

// GetBook returns the cached book or nil; a nil result also queues a
// subscription so the next read can hit.
func (c *BookCache) GetBook(tokenID string) *Book {
	c.mu.RLock()
	book, ok := c.books[tokenID]
	c.mu.RUnlock()
	if !ok {
		c.Subscribe([]string{tokenID})
		return nil
	}
	return book
}

// MarkPrice returns the book midpoint for a token when one is available.
func (c *BookCache) MarkPrice(tokenID string) (float64, bool) {
	book := c.GetBook(tokenID)
	if book == nil {
		return 0, false
	}
	mid, ok := book.Mid()
	if !ok {
		return 0, false
	}
	return mid.InexactFloat64(), true
}

func (c *BookCache) runLoop() {
	delay := reconnBaseDelay

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		conn, err := c.dial()
		if err != nil {
			logger.Error("market stream connect failed", "error", err, "retry_in", delay)
			select {
			case <-c.ctx.Done():
				return
			case <-time.After(delay):
			}
			delay *= 2
			if delay > reconnMaxDelay {
				delay = reconnMaxDelay
			}
			continue
		}
		delay = reconnBaseDelay

		done := make(chan struct{})

		c.mu.Lock()
		select {
		case <-c.ctx.Done():
			// Stop raced the dial; this conn was never published.
			c.mu.Unlock()
			conn.Close()
			return
		default:
		}
		c.conn = conn
		allSubs := append([]string(nil), c.subs...)
		var subErr error
		if len(allSubs) > 0 {
			subErr = c.sendSubscribeLocked(allSubs)
		}
		c.mu.Unlock()

		if subErr != nil {
			logger.Error("market stream resubscribe failed", "error", subErr)
			c.teardown(conn, done)
			continue
		}

		go c.pingLoop(conn, done)

		c.readLoop(conn)
		c.teardown(conn, done)
	}
}

// teardown closes one connection and ends its ping goroutine. The shared
// handle is cleared only if it still points at this connection.
func (c *BookCache) teardown(conn *websocket.Conn, done chan struct{}) {
	close(done)
	conn.Close()

	c.mu.Lock()
	if c.conn == conn {
		c.conn = nil
	}
	c.mu.Unlock()
}

func (c *BookCache) dial() (*websocket.Conn, error) {
	conn, _, err := websocket.DefaultDialer.Dial(c.wsURL, nil)
	if err != nil {
		return nil, err
	}

	// Zombie check: no traffic within ping period + buffer means dead socket.
	readTimeout := pingPeriod + 10*time.Second
	conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(readTimeout))
		return nil
	})
	return conn, nil
}

func (c *BookCache) pingLoop(conn *websocket.Conn, done chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-done:
			return
		case <-ticker.C:
			c.mu.Lock()
			if c.conn != conn {
				c.mu.Unlock()
				return
			}
			err := conn.WriteMessage(websocket.PingMessage, []byte{})
			c.mu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

type wsMessage struct {
	EventType string         `json:"event_type"`
	Market    string         `json:"market"`
	Bids      []rawBookLevel `json:"bids"`
	Asks      []rawBookLevel `json:"asks"`
}

type rawBookLevel struct {
	Price string `json:"price"`
	Size  string `json:"size"`
}

func (c *BookCache) readLoop(conn *websocket.Conn) {
	readTimeout := pingPeriod + 10*time.Second

	for {
		conn.SetReadDeadline(time.Now().Add(readTimeout))
		_, message, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-c.ctx.Done():
			default:
				logger.Error("market stream read error", "error", err)
			}
			return
		}

		var batch []wsMessage
		if err := json.Unmarshal(message, &batch); err != nil {
			var single wsMessage
			if err2 := json.Unmarshal(message, &single); err2 == nil {
				batch = []wsMessage{single}
			} else {
				continue
			}
		}

		for _, msg := range batch {
			if msg.EventType == "book" && msg.Market != "" {
				c.applyBookMessage(msg)
			}
		}
	}
}

func (c *BookCache) applyBookMessage(msg wsMessage) {
	c.mu.RLock()
	book, exists := c.books[msg.Market]
	c.mu.RUnlock()
	if !exists {
		return
	}

	for _, bid := range msg.Bids {
		book.Update("BUY", bid.Price, bid.Size)
	}
	for _, ask := range msg.Asks {
		book.Update("SELL", ask.Price, ask.Size)
	}
}

// sendSubscribeLocked writes a subscribe frame. Caller holds c.mu.
func (c *BookCache) sendSubscribeLocked(tokenIDs []string) error {
	if c.conn == nil {
		return fmt.Errorf("no connection")
	}
	msg := map[string]interface{}{
		"type":         "subscribe",
		"assets_ids":   tokenIDs,
		"channel_name": "book",
	}
	return c.conn.WriteJSON(msg)
}
