// Killchain Assassin Game
//
// Each player is secretly assigned another player as their target, along
// with a weapon, arranged in a single circular kill chain. When a target
// is eliminated, the killer inherits the victim's target. Last player
// standing wins.
//
// Features:
// - WebSockets per game code: /path/:gameid and /path/:gameid/ws
// - First connection to a game becomes the host
// - Host manages the roster, weapon pool, and weapon suggestions
// - Players identified by cookie (playerID); guests added by the host
// - Two elimination policies: direct reports, or request/confirm
// - Missions (target + weapon) are private to each player
// - Games auto-reaped after configurable idle timeout
// - Random 8-char game codes via crypto/rand, with collision check
// - In-browser QR button to share the current session, backed by go-qrcode

package main

import (
	"context"
	crand "crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"log"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/Seednode/killchain/internal/game"
	"github.com/Seednode/killchain/internal/notify"
	"github.com/Seednode/killchain/internal/store"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"
	"golang.org/x/time/rate"
)

// Messages coming from clients
type ClientMessage struct {
	Type         string `json:"type"`
	Name         string `json:"name,omitempty"`          // join / add_guest / add_weapon / suggest_weapon
	Photo        string `json:"photo,omitempty"`         // join
	PlayerID     string `json:"player_id,omitempty"`     // remove_player
	WeaponID     string `json:"weapon_id,omitempty"`     // remove_weapon
	SuggestionID string `json:"suggestion_id,omitempty"` // approve_suggestion / reject_suggestion
	VictimID     string `json:"victim_id,omitempty"`     // report_kill / request_kill
	Endpoint     string `json:"endpoint,omitempty"`      // register_push / unregister_push
}

// SessionInfoMessage is sent immediately on connect so the client knows
// what role this cookie has and which elimination policy is in force.
type SessionInfoMessage struct {
	Type         string `json:"type"` // "session_info"
	PlayerID     string `json:"player_id"`
	IsHost       bool   `json:"is_host"`
	IsExisting   bool   `json:"is_existing"`
	Name         string `json:"name,omitempty"`
	ConfirmKills bool   `json:"confirm_kills"`
}

type PlayerView struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Photo string `json:"photo,omitempty"`
	Guest bool   `json:"guest,omitempty"`
	Alive bool   `json:"alive"`
}

type WeaponView struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// KillFeedEntry is one resolved elimination, with ids already translated
// to names for display. Killer may be empty for unattributed kills.
type KillFeedEntry struct {
	Killer string    `json:"killer,omitempty"`
	Victim string    `json:"victim"`
	Weapon string    `json:"weapon,omitempty"`
	Time   time.Time `json:"time"`
}

// GameStateMessage is the public view of the session, broadcast to every
// client whenever the stored session changes.
type GameStateMessage struct {
	Type     string          `json:"type"` // "game_state"
	Status   string          `json:"status"`
	Players  []PlayerView    `json:"players"`
	Weapons  []WeaponView    `json:"weapons"`
	KillFeed []KillFeedEntry `json:"kill_feed,omitempty"`
	Winner   string          `json:"winner,omitempty"`
}

// MissionMessage is sent only to the player it belongs to.
type MissionMessage struct {
	Type        string `json:"type"` // "mission"
	TargetID    string `json:"target_id"`
	TargetName  string `json:"target_name"`
	TargetPhoto string `json:"target_photo,omitempty"`
	Weapon      string `json:"weapon"`
	Inherited   bool   `json:"inherited"`
}

// PendingKillMessage tells a victim someone claims to have gotten them.
type PendingKillMessage struct {
	Type       string `json:"type"` // "pending_kill"
	KillerName string `json:"killer_name"`
}

// SuggestionView and SuggestionsMessage are sent only to the host.
type SuggestionView struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	SuggestedBy string `json:"suggested_by"`
}

type SuggestionsMessage struct {
	Type        string           `json:"type"` // "suggestions"
	Suggestions []SuggestionView `json:"suggestions"`
}

// ErrorMessage carries user-facing failure text to a single client.
type ErrorMessage struct {
	Type    string `json:"type"` // "error"
	Message string `json:"message"`
}

type Client struct {
	conn     *websocket.Conn
	send     chan any
	playerID string
	limiter  *rate.Limiter
}

type command struct {
	client *Client
	msg    ClientMessage
}

type Hub struct {
	code       string
	cfg        *Config
	store      store.Store
	dispatcher *notify.Dispatcher
	rng        *rand.Rand

	register chan *Client
	unreg    chan *Client
	commands chan command

	mu         sync.RWMutex
	clients    map[*Client]bool
	hostID     string
	lastActive time.Time
	watchStop  func()
}

func newHub(cfg *Config, code string, st store.Store, dispatcher *notify.Dispatcher) *Hub {
	return &Hub{
		code:       code,
		cfg:        cfg,
		store:      st,
		dispatcher: dispatcher,
		rng:        rand.New(rand.NewSource(cryptoSeed())),
		register:   make(chan *Client),
		unreg:      make(chan *Client),
		commands:   make(chan command),
		clients:    make(map[*Client]bool),
		lastActive: time.Now(),
	}
}

// cryptoSeed derives a math/rand seed from the system entropy source, so
// assignment shuffles stay unpredictable while the engine keeps its
// injectable deterministic source for tests.
func cryptoSeed() int64 {
	var buf [8]byte
	if _, err := crand.Read(buf[:]); err != nil {
		return time.Now().UnixNano()
	}
	return int64(binary.LittleEndian.Uint64(buf[:]))
}

func (h *Hub) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return

		case c := <-h.register:
			h.handleRegister(ctx, c)

		case c := <-h.unreg:
			h.handleUnregister(ctx, c)

		case cmd := <-h.commands:
			h.handleCommand(ctx, cmd.client, cmd.msg)
		}
	}
}

func (h *Hub) touch() {
	h.mu.Lock()
	h.lastActive = time.Now()
	h.mu.Unlock()
}

func (h *Hub) handleRegister(ctx context.Context, c *Client) {
	h.touch()

	snapshot, err := h.store.Load(ctx, h.code)
	if errors.Is(err, store.ErrNotFound) {
		// First connection creates the session and becomes host.
		session := game.NewSession(h.code, c.playerID, h.cfg.confirmKills, time.Now())
		if err = h.store.Create(ctx, session); err == nil {
			gamesCreated.Inc()
			logf(h.cfg, "GAMES: Created game %s hosted by %s", h.code, c.playerID)
			h.startWatch(ctx)
			snapshot, err = h.store.Load(ctx, h.code)
		}
	}
	if err != nil {
		c.send <- ErrorMessage{Type: "error", Message: userMessage(err)}
		close(c.send)
		_ = c.conn.Close()
		return
	}

	session := snapshot.Session

	h.mu.Lock()
	h.hostID = session.HostID
	h.clients[c] = true
	h.mu.Unlock()

	playersConnected.Inc()

	existing, isExisting := session.Players[c.playerID]

	c.send <- SessionInfoMessage{
		Type:         "session_info",
		PlayerID:     c.playerID,
		IsHost:       session.HostID == c.playerID,
		IsExisting:   isExisting,
		Name:         existing.Name,
		ConfirmKills: session.ConfirmKills,
	}

	// Catch the late joiner up without waiting for the next store change.
	h.sendState(c, session)
}

func (h *Hub) handleUnregister(ctx context.Context, c *Client) {
	h.touch()

	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
		playersConnected.Dec()
	}
	hostID := h.hostID
	h.mu.Unlock()

	// The host leaving does not dissolve the lobby; other players who
	// stay gone through the forming phase get dropped from the roster.
	if c.playerID != "" && c.playerID != hostID {
		go h.scheduleRemoval(ctx, c.playerID, h.cfg.playerTimeout)
	}
}

// scheduleRemoval waits for d, and if no client with this playerID has
// reconnected and the game is still forming, removes that player's
// roster entry.
func (h *Hub) scheduleRemoval(ctx context.Context, playerID string, d time.Duration) {
	select {
	case <-ctx.Done():
		return
	case <-time.After(d):
	}

	h.mu.RLock()
	for client := range h.clients {
		if client.playerID == playerID {
			h.mu.RUnlock()
			return
		}
	}
	h.mu.RUnlock()

	_, err := h.store.Update(ctx, h.code, func(s *game.Session) error {
		return s.RemovePlayer(playerID)
	})
	if err == nil {
		logf(h.cfg, "GAMES: Dropped idle player %s from %s", playerID, h.code)
	}
}

// startWatch subscribes the hub and its notification dispatcher to the
// stored session. Every committed change fans out to all clients.
func (h *Hub) startWatch(ctx context.Context) {
	watchCtx, cancel := context.WithCancel(ctx)

	h.mu.Lock()
	h.watchStop = cancel
	h.mu.Unlock()

	go func() {
		ch, stop, err := h.store.Watch(watchCtx, h.code)
		if err != nil {
			cancel()
			return
		}
		defer stop()

		for snapshot := range ch {
			h.broadcast(snapshot.Session)
		}
	}()

	go func() {
		if err := h.dispatcher.Run(watchCtx, h.code); err != nil && !errors.Is(err, context.Canceled) {
			logf(h.cfg, "NOTIFY: dispatcher for %s stopped: %v", h.code, err)
		}
	}()
}

// broadcast sends the public state to every client, plus each client's
// private view: the host's suggestion queue, per-player missions, and
// any pending kill awaiting the client's confirmation.
func (h *Hub) broadcast(session *game.Session) {
	state := buildGameState(session)

	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		h.trySendLocked(client, state)

		if client.playerID == session.HostID {
			h.trySendLocked(client, buildSuggestions(session))
		}

		if mission, err := session.Mission(client.playerID); err == nil && !session.IsDead(client.playerID) {
			h.trySendLocked(client, MissionMessage{
				Type:        "mission",
				TargetID:    mission.Target.ID,
				TargetName:  mission.Target.Name,
				TargetPhoto: mission.Target.Photo,
				Weapon:      mission.Weapon.Name,
				Inherited:   mission.Inherited,
			})
		}

		if pending, ok := session.PendingKills[client.playerID]; ok {
			h.trySendLocked(client, PendingKillMessage{
				Type:       "pending_kill",
				KillerName: pending.KillerName,
			})
		}
	}
}

// trySendLocked assumes h.mu is held. Slow clients are dropped rather
// than allowed to stall the hub.
func (h *Hub) trySendLocked(c *Client, msg any) {
	select {
	case c.send <- msg:
	default:
		delete(h.clients, c)
		close(c.send)
		playersConnected.Dec()
		messagesDropped.Inc()
	}
}

func buildGameState(session *game.Session) GameStateMessage {
	players := make([]PlayerView, 0, len(session.Players))
	for _, p := range session.AlivePlayers() {
		players = append(players, PlayerView{
			ID:    p.ID,
			Name:  p.Name,
			Photo: p.Photo,
			Guest: p.Guest,
			Alive: true,
		})
	}
	for _, p := range session.DeadPlayers() {
		players = append(players, PlayerView{
			ID:    p.ID,
			Name:  p.Name,
			Photo: p.Photo,
			Guest: p.Guest,
		})
	}

	weapons := make([]WeaponView, 0, len(session.Weapons))
	for _, w := range session.Weapons {
		weapons = append(weapons, WeaponView{ID: w.ID, Name: w.Name})
	}

	feed := make([]KillFeedEntry, 0, len(session.KillLog))
	for _, record := range session.KillLog {
		entry := KillFeedEntry{
			Victim: session.Players[record.VictimID].Name,
			Time:   record.Time,
		}
		if record.KillerID != "" {
			entry.Killer = session.Players[record.KillerID].Name
		}
		for _, w := range session.Weapons {
			if w.ID == record.WeaponID {
				entry.Weapon = w.Name
				break
			}
		}
		feed = append(feed, entry)
	}

	state := GameStateMessage{
		Type:     "game_state",
		Status:   string(session.Status),
		Players:  players,
		Weapons:  weapons,
		KillFeed: feed,
	}

	if winner, ok := session.Winner(); ok {
		state.Winner = winner.Name
	}

	return state
}

func buildSuggestions(session *game.Session) SuggestionsMessage {
	suggestions := make([]SuggestionView, 0, len(session.Suggestions))
	for _, s := range session.Suggestions {
		suggestions = append(suggestions, SuggestionView{
			ID:          s.ID,
			Name:        s.Name,
			SuggestedBy: s.SuggestedByName,
		})
	}
	return SuggestionsMessage{Type: "suggestions", Suggestions: suggestions}
}

// sendState delivers the client's full current view outside the watch
// fan-out, used to catch up a freshly connected client.
func (h *Hub) sendState(c *Client, session *game.Session) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.clients[c] {
		return
	}

	h.trySendLocked(c, buildGameState(session))

	if c.playerID == session.HostID {
		h.trySendLocked(c, buildSuggestions(session))
	}

	if mission, err := session.Mission(c.playerID); err == nil && !session.IsDead(c.playerID) {
		h.trySendLocked(c, MissionMessage{
			Type:        "mission",
			TargetID:    mission.Target.ID,
			TargetName:  mission.Target.Name,
			TargetPhoto: mission.Target.Photo,
			Weapon:      mission.Weapon.Name,
			Inherited:   mission.Inherited,
		})
	}

	if pending, ok := session.PendingKills[c.playerID]; ok {
		h.trySendLocked(c, PendingKillMessage{
			Type:       "pending_kill",
			KillerName: pending.KillerName,
		})
	}
}

func (h *Hub) sendError(c *Client, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[c] {
		h.trySendLocked(c, ErrorMessage{Type: "error", Message: userMessage(err)})
	}
}

func (h *Hub) isHost(playerID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.hostID != "" && playerID == h.hostID
}

func (h *Hub) handleCommand(ctx context.Context, c *Client, msg ClientMessage) {
	h.touch()

	hostOnly := func() bool {
		if h.isHost(c.playerID) {
			return true
		}
		h.sendError(c, &game.ValidationError{Problems: []string{"only the host may do that"}})
		return false
	}

	update := func(fn func(*game.Session) error) bool {
		_, err := h.store.Update(ctx, h.code, fn)
		if err != nil {
			h.sendError(c, err)
			return false
		}
		return true
	}

	switch msg.Type {
	case "join":
		update(func(s *game.Session) error {
			player, err := s.AddPlayer(c.playerID, msg.Name, msg.Photo, time.Now())
			if err == nil {
				logf(h.cfg, "GAMES: Player %q joined %s", player.Name, h.code)
			}
			return err
		})

	case "add_guest":
		if !hostOnly() {
			return
		}
		update(func(s *game.Session) error {
			_, err := s.AddPlayer("", msg.Name, "", time.Now())
			return err
		})

	case "remove_player":
		if !hostOnly() {
			return
		}
		update(func(s *game.Session) error {
			return s.RemovePlayer(msg.PlayerID)
		})

	case "add_weapon":
		if !hostOnly() {
			return
		}
		update(func(s *game.Session) error {
			_, err := s.AddWeapon(msg.Name, "")
			return err
		})

	case "remove_weapon":
		if !hostOnly() {
			return
		}
		update(func(s *game.Session) error {
			return s.RemoveWeapon(msg.WeaponID)
		})

	case "default_weapons":
		if !hostOnly() {
			return
		}
		update(func(s *game.Session) error {
			for _, name := range game.DefaultWeapons {
				// Names already in the pool stay as they are.
				var verr *game.ValidationError
				if _, err := s.AddWeapon(name, ""); err != nil && !errors.As(err, &verr) {
					return err
				}
			}
			return nil
		})

	case "suggest_weapon":
		update(func(s *game.Session) error {
			_, err := s.SuggestWeapon(c.playerID, msg.Name, time.Now())
			return err
		})

	case "approve_suggestion":
		if !hostOnly() {
			return
		}
		update(func(s *game.Session) error {
			_, err := s.ApproveSuggestion(msg.SuggestionID)
			return err
		})

	case "reject_suggestion":
		if !hostOnly() {
			return
		}
		update(func(s *game.Session) error {
			return s.RejectSuggestion(msg.SuggestionID)
		})

	case "start_game":
		if !hostOnly() {
			return
		}
		if update(func(s *game.Session) error {
			return s.Start(h.rng, time.Now())
		}) {
			logf(h.cfg, "GAMES: Started game %s", h.code)
		}

	case "report_kill":
		if update(func(s *game.Session) error {
			if s.ConfirmKills {
				return &game.ValidationError{Problems: []string{"this game requires the victim to confirm eliminations"}}
			}
			result, err := s.ReportKill(msg.VictimID, time.Now())
			if err == nil {
				logf(h.cfg, "GAMES: %s eliminated in %s", result.Victim.Name, h.code)
			}
			return err
		}) {
			killsRecorded.Inc()
		}

	case "request_kill":
		if update(func(s *game.Session) error {
			if !s.ConfirmKills {
				return &game.ValidationError{Problems: []string{"this game applies eliminations immediately; report the kill instead"}}
			}
			return s.RequestKill(c.playerID, msg.VictimID, time.Now())
		}) {
			killsPending.Inc()
		}

	case "confirm_death":
		if update(func(s *game.Session) error {
			result, err := s.ConfirmDeath(c.playerID, time.Now())
			if err == nil {
				logf(h.cfg, "GAMES: %s confirmed their elimination in %s", result.Victim.Name, h.code)
			}
			return err
		}) {
			killsRecorded.Inc()
		}

	case "reject_kill":
		update(func(s *game.Session) error {
			return s.RejectKill(c.playerID)
		})

	case "mission":
		snapshot, err := h.store.Load(ctx, h.code)
		if err != nil {
			h.sendError(c, err)
			return
		}
		mission, err := snapshot.Session.Mission(c.playerID)
		if err != nil {
			h.sendError(c, err)
			return
		}
		h.mu.Lock()
		if h.clients[c] {
			h.trySendLocked(c, MissionMessage{
				Type:        "mission",
				TargetID:    mission.Target.ID,
				TargetName:  mission.Target.Name,
				TargetPhoto: mission.Target.Photo,
				Weapon:      mission.Weapon.Name,
				Inherited:   mission.Inherited,
			})
		}
		h.mu.Unlock()

	case "register_push":
		if msg.Endpoint != "" {
			h.dispatcher.Register(c.playerID, msg.Endpoint)
		}

	case "unregister_push":
		if msg.Endpoint != "" {
			h.dispatcher.Unregister(c.playerID, msg.Endpoint)
		}

	default:
		// ignore unknown types
	}
}

// closeAll disconnects all clients of this hub (used by reaper).
func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.watchStop != nil {
		h.watchStop()
	}

	for c := range h.clients {
		close(c.send)
		_ = c.conn.Close()
		delete(h.clients, c)
		playersConnected.Dec()
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const playerCookieName = "killchain_id"

func getOrSetPlayerID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(playerCookieName); err == nil && c.Value != "" {
		return c.Value
	}

	buf := make([]byte, 16)
	if _, err := crand.Read(buf); err != nil {
		log.Println("rand.Read error:", err)
		return ""
	}
	id := hex.EncodeToString(buf)

	http.SetCookie(w, &http.Cookie{
		Name:     playerCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	return id
}

// notifyMetrics wraps a push transport so deliveries are counted.
type notifyMetrics struct {
	inner notify.Pusher
}

func (m notifyMetrics) Push(ctx context.Context, endpoint string, n notify.Notification) error {
	err := m.inner.Push(ctx, endpoint, n)
	if err == nil {
		notificationsPushed.Inc()
	}
	return err
}

// GameManager holds a set of hubs keyed by game code, all backed by one
// session store and one notification dispatcher.
type GameManager struct {
	cfg        *Config
	store      store.Store
	dispatcher *notify.Dispatcher

	mu   sync.Mutex
	hubs map[string]*Hub

	idleTimeout time.Duration
}

func newGameManager(ctx context.Context, cfg *Config) *GameManager {
	st := store.NewMemory()

	gm := &GameManager{
		cfg:         cfg,
		store:       st,
		dispatcher:  notify.NewDispatcher(st, notifyMetrics{inner: notify.LogPusher{}}),
		hubs:        make(map[string]*Hub),
		idleTimeout: cfg.sessionTimeout,
	}
	if gm.idleTimeout > 0 {
		go gm.reaperLoop(ctx)
	}
	return gm
}

func (gm *GameManager) getHub(ctx context.Context, code string) *Hub {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	if hub, ok := gm.hubs[code]; ok {
		return hub
	}

	hub := newHub(gm.cfg, code, gm.store, gm.dispatcher)
	gm.hubs[code] = hub
	gamesActive.Inc()
	go hub.run(ctx)
	return hub
}

// newGameCode generates a crypto-random game code and ensures it doesn't
// collide with existing games.
func (gm *GameManager) newGameCode() string {
	const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	for {
		buf := make([]byte, 8)
		if _, err := crand.Read(buf); err != nil {
			panic("crypto/rand failure: " + err.Error())
		}
		out := make([]byte, 8)
		for i := range out {
			out[i] = letters[int(buf[i])%len(letters)]
		}
		code := string(out)

		gm.mu.Lock()
		_, exists := gm.hubs[code]
		gm.mu.Unlock()

		if !exists {
			return code
		}
	}
}

// reaperLoop periodically removes hubs that have been idle longer than
// idleTimeout, deleting their stored sessions.
func (gm *GameManager) reaperLoop(ctx context.Context) {
	ticker := time.NewTicker(gm.idleTimeout / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		cutoff := time.Now().Add(-gm.idleTimeout)

		gm.mu.Lock()
		for code, hub := range gm.hubs {
			hub.mu.RLock()
			last := hub.lastActive
			hub.mu.RUnlock()

			if last.Before(cutoff) {
				delete(gm.hubs, code)
				gamesActive.Dec()
				logf(gm.cfg, "GAMES: Reaped idle game %s", code)
				go func(code string, hub *Hub) {
					hub.closeAll()
					_ = gm.store.Delete(ctx, code)
				}(code, hub)
			}
		}
		gm.mu.Unlock()
	}
}

// WebSocket handler that picks the hub based on :gameid
func serveWSForManager(ctx context.Context, gm *GameManager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		code := ps.ByName("gameid")
		if code == "" {
			http.Error(w, "missing game id", http.StatusBadRequest)
			return
		}

		playerID := getOrSetPlayerID(w, r)
		if playerID == "" {
			http.Error(w, "unable to assign player id", http.StatusInternalServerError)
			return
		}

		hub := gm.getHub(ctx, code)

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Println("upgrade error:", err)
			return
		}

		client := &Client{
			conn:     conn,
			send:     make(chan any, 8),
			playerID: playerID,
			limiter:  rate.NewLimiter(rate.Limit(10), 20),
		}

		hub.register <- client

		go client.writePump()
		client.readPump(hub)
	}
}

func (c *Client) readPump(h *Hub) {
	defer func() {
		h.unreg <- c
		_ = c.conn.Close()
	}()

	for {
		var msg ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}

		if !c.limiter.Allow() {
			continue
		}

		h.commands <- command{
			client: c,
			msg:    msg,
		}
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

// QR handler: generates a PNG QR code for the current game URL using go-qrcode.
func qrHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	code := ps.ByName("gameid")
	if code == "" {
		http.Error(w, "missing game id", http.StatusBadRequest)
		return
	}

	// Derive scheme (respecting TLS and X-Forwarded-Proto if present).
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	// We are at /.../:gameid/qr; strip trailing "/qr" to get the game URL.
	path := strings.TrimSuffix(r.URL.Path, "/qr")

	url := scheme + "://" + r.Host + path

	const qrSize = 320 // mobile-friendly size
	png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
	if err != nil {
		http.Error(w, "qr generation failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(png)
}

// serveGamePage renders a minimal per-game landing page; the game itself
// is driven over the websocket.
func serveGamePage(cfg *Config) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		code := ps.ByName("gameid")

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		securityHeaders(cfg, w)

		_ = getOrSetPlayerID(w, r)

		page := `<!DOCTYPE html><html lang="en"><head><title>killchain — ` + code + `</title></head>` +
			`<body><h1>Game ` + code + `</h1>` +
			`<p>Connect a client to <code>` + r.URL.Path + `/ws</code> to play.</p>` +
			`<p><a href="` + r.URL.Path + `/qr">Share this game</a></p></body></html>`

		_, _ = w.Write([]byte(page))
	}
}

// redirectNewGame handles GET /path by generating a new random game code
// (with server-side collision detection) and redirecting to /path/:gameid.
func redirectNewGame(cfg *Config, path string, gm *GameManager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		code := gm.newGameCode()
		logf(cfg, "GAMES: Issued game code %s/%s", path, code)
		http.Redirect(w, r, cfg.prefix+path+"/"+code, http.StatusTemporaryRedirect)
	}
}

// registerAssassinGame sets up routes so that:
//   - $path             → redirects to new random game (8-char code)
//   - $path/:gameid     → HTML landing page
//   - $path/:gameid/ws  → WebSocket for that game
//   - $path/:gameid/qr  → PNG QR code for that game URL
func registerAssassinGame(ctx context.Context, cfg *Config, path string, mux *httprouter.Router) {
	gm := newGameManager(ctx, cfg)

	mux.GET(cfg.prefix+path, redirectNewGame(cfg, path, gm))

	mux.GET(cfg.prefix+path+"/:gameid", serveGamePage(cfg))

	mux.GET(cfg.prefix+path+"/:gameid/ws", serveWSForManager(ctx, gm))

	mux.GET(cfg.prefix+path+"/:gameid/qr", qrHandler)
}
