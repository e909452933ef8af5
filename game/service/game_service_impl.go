package service

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/mkowalczyk/seabattle/game/board"
	"github.com/mkowalczyk/seabattle/game/bot"
	"github.com/mkowalczyk/seabattle/game/config"
	"github.com/mkowalczyk/seabattle/game/engine"
	"github.com/mkowalczyk/seabattle/game/player"
	"github.com/mkowalczyk/seabattle/game/room"
	"github.com/mkowalczyk/seabattle/game/session"
)

// gameServiceImpl implements the GameService interface. It owns the
// orchestration between the engine, the registry and the transports:
// every state change flows through here and fans out as notifications.
type gameServiceImpl struct {
	players     *player.Store
	rooms       *room.Manager
	games       *session.Registry
	rules       *config.Rules
	broadcaster Broadcaster
	mu          sync.RWMutex
}

// NewGameService creates a new game service instance. The rules govern
// bot fleet placement; pass config.DefaultRules() for the classic game.
func NewGameService(players *player.Store, rooms *room.Manager, games *session.Registry, rules *config.Rules) GameService {
	return &gameServiceImpl{
		players: players,
		rooms:   rooms,
		games:   games,
		rules:   rules,
	}
}

// SetBroadcaster attaches the transport used for update_room and
// update_winners fan-out. Without one those updates are dropped.
func (s *gameServiceImpl) SetBroadcaster(b Broadcaster) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.broadcaster = b
}

func (s *gameServiceImpl) broadcast(msgType string, payload interface{}) {
	if s.broadcaster != nil {
		s.broadcaster.Broadcast(msgType, payload)
	}
}

func (s *gameServiceImpl) Register(ctx context.Context, name, password string) (*player.Player, error) {
	return s.players.RegisterOrLogin(name, password)
}

func (s *gameServiceImpl) Winners(ctx context.Context) []player.WinnerEntry {
	return s.players.Winners()
}

func (s *gameServiceImpl) CreateRoom(ctx context.Context, playerID int, conn engine.Conn) (*room.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.players.Get(playerID)
	if !ok {
		return nil, fmt.Errorf("unknown player %d", playerID)
	}
	r := s.rooms.CreateRoom(p.ID, p.Name, conn)
	s.broadcast(MsgUpdateRoom, s.rooms.Available())
	return r, nil
}

func (s *gameServiceImpl) Rooms(ctx context.Context) []room.Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rooms.Available()
}

// JoinRoom seats a player in a room. When the room fills up it is torn
// down and a game is created from its two occupants; the returned game is
// nil when the room is still waiting for a second player.
func (s *gameServiceImpl) JoinRoom(ctx context.Context, roomID, playerID int, conn engine.Conn) (*engine.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.players.Get(playerID)
	if !ok {
		return nil, fmt.Errorf("unknown player %d", playerID)
	}
	r, err := s.rooms.AddUser(roomID, p.ID, p.Name, conn)
	if err != nil {
		return nil, err
	}
	if r.Status != room.StatusReady {
		s.broadcast(MsgUpdateRoom, s.rooms.Available())
		return nil, nil
	}

	first, second := r.Users[0], r.Users[1]
	g := s.games.Create(r.GameID,
		&engine.Participant{ID: first.Index, Name: first.Name, Conn: first.Conn},
		&engine.Participant{ID: second.Index, Name: second.Name, Conn: second.Conn},
	)
	s.rooms.Remove(r.ID)

	// Players entering a game abandon any other room they were waiting in.
	s.dropRoomsOf(first.Index)
	s.dropRoomsOf(second.Index)

	for _, participant := range g.Players {
		s.send(participant, MsgCreateGame, CreateGamePayload{IDGame: g.ID, IDPlayer: participant.ID})
	}
	s.broadcast(MsgUpdateRoom, s.rooms.Available())
	return g, nil
}

func (s *gameServiceImpl) CreateSinglePlayerGame(ctx context.Context, playerID int, conn engine.Conn) (*engine.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.players.Get(playerID)
	if !ok {
		return nil, fmt.Errorf("unknown player %d", playerID)
	}
	s.dropRoomsOf(p.ID)

	g := s.games.Create(s.rooms.NextGameID(),
		&engine.Participant{ID: p.ID, Name: p.Name, Conn: conn},
		&engine.Participant{ID: bot.PlayerID, Name: bot.Name, Bot: true},
	)

	// The bot's fleet goes down immediately; the game starts as soon as
	// the human submits theirs.
	fleet := bot.PlaceFleet(s.rules)
	if _, err := g.PlaceShips(bot.PlayerID, fleet); err != nil {
		log.Printf("[Service] Failed to place bot fleet in game %d: %v", g.ID, err)
	}

	human, _ := g.Participant(p.ID)
	s.send(human, MsgCreateGame, CreateGamePayload{IDGame: g.ID, IDPlayer: p.ID})
	s.broadcast(MsgUpdateRoom, s.rooms.Available())
	return g, nil
}

func (s *gameServiceImpl) PlaceShips(ctx context.Context, gameID, playerID int, ships []*board.Ship) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.games.Get(gameID)
	if !ok {
		return engine.ErrGameNotFound
	}
	started, err := g.PlaceShips(playerID, ships)
	if err != nil {
		return err
	}
	if !started {
		return nil
	}

	activeID := g.ActivePlayer().ID
	for _, participant := range g.Players {
		s.send(participant, MsgStartGame, StartGamePayload{
			Ships:              participant.Board.Ships,
			CurrentPlayerIndex: activeID,
		})
		s.send(participant, MsgTurn, TurnPayload{CurrentPlayer: activeID})
	}
	s.runBotTurns(g)
	return nil
}

func (s *gameServiceImpl) Attack(ctx context.Context, gameID, playerID int, coord board.Coordinate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.games.Get(gameID)
	if !ok {
		return engine.ErrGameNotFound
	}
	out, err := g.Attack(playerID, coord)
	if err != nil {
		return err
	}
	s.resolve(g, out)
	return nil
}

func (s *gameServiceImpl) RandomAttack(ctx context.Context, gameID, playerID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.games.Get(gameID)
	if !ok {
		return engine.ErrGameNotFound
	}
	out, err := g.RandomAttack(playerID)
	if err != nil {
		return err
	}
	s.resolve(g, out)
	return nil
}

// HandleDisconnect is the cleanup path for a dropped connection. Rooms
// the player was waiting in are vacated. An unfinished game is forfeited
// to the opponent, who is credited with a win only when the game had
// actually started.
func (s *gameServiceImpl) HandleDisconnect(ctx context.Context, playerID int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dropRoomsOf(playerID) {
		s.broadcast(MsgUpdateRoom, s.rooms.Available())
	}

	g, ok := s.games.FindByPlayer(playerID)
	if !ok {
		return
	}
	wasPlaying := g.Phase == engine.PhasePlaying
	winner, forfeited := g.Forfeit(playerID)
	if forfeited && wasPlaying {
		s.send(winner, MsgFinish, FinishPayload{WinPlayer: winner.ID})
		if !winner.Bot {
			s.players.IncrementWins(winner.ID)
			s.broadcast(MsgUpdateWinners, s.players.Winners())
		}
	}
	s.games.Remove(g.ID)
	log.Printf("[Service] Player %d disconnected, game %d removed", playerID, g.ID)
}

func (s *gameServiceImpl) ListGames(ctx context.Context) []GameView {
	s.mu.RLock()
	defer s.mu.RUnlock()

	games := s.games.List()
	views := make([]GameView, 0, len(games))
	for _, g := range games {
		views = append(views, *gameView(g))
	}
	return views
}

func (s *gameServiceImpl) GetGame(ctx context.Context, gameID int) (*GameView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.games.Get(gameID)
	if !ok {
		return nil, engine.ErrGameNotFound
	}
	return gameView(g), nil
}

// resolve fans an attack outcome out to both players and drives the game
// forward: a finished game is settled, otherwise the bot keeps shooting
// for as long as it holds the turn.
func (s *gameServiceImpl) resolve(g *engine.Game, out *engine.Outcome) {
	s.notifyOutcome(g, out)
	if out.Finished {
		s.finishGame(g, out.WinnerID)
		return
	}
	s.runBotTurns(g)
}

// runBotTurns lets the bot play until it misses, wins, or runs out of
// cells. The loop replaces per-shot rescheduling so one inbound command
// fully settles the board before the next one is processed.
func (s *gameServiceImpl) runBotTurns(g *engine.Game) {
	for g.Phase == engine.PhasePlaying && g.ActivePlayer().Bot {
		shooter := g.ActivePlayer()
		opponent, _ := g.Opponent(shooter.ID)
		target, ok := bot.ChooseTarget(opponent.Board)
		if !ok {
			log.Printf("[Service] Bot has no cells left to shoot in game %d", g.ID)
			return
		}
		out, err := g.Attack(shooter.ID, target)
		if err != nil {
			log.Printf("[Service] Bot attack failed in game %d: %v", g.ID, err)
			return
		}
		s.notifyOutcome(g, out)
		if out.Finished {
			s.finishGame(g, out.WinnerID)
			return
		}
	}
}

func (s *gameServiceImpl) notifyOutcome(g *engine.Game, out *engine.Outcome) {
	attack := AttackPayload{
		Position:      out.Position,
		CurrentPlayer: out.AttackerID,
		Status:        out.Result,
		Ship:          out.ShipSunk,
	}
	for _, participant := range g.Players {
		s.send(participant, MsgAttack, attack)
	}
	if out.Finished {
		return
	}
	for _, participant := range g.Players {
		s.send(participant, MsgTurn, TurnPayload{CurrentPlayer: out.NextPlayerID})
	}
}

func (s *gameServiceImpl) finishGame(g *engine.Game, winnerID int) {
	for _, participant := range g.Players {
		s.send(participant, MsgFinish, FinishPayload{WinPlayer: winnerID})
	}
	if winnerID > 0 {
		s.players.IncrementWins(winnerID)
		s.broadcast(MsgUpdateWinners, s.players.Winners())
	}
	s.games.Remove(g.ID)
}

// dropRoomsOf removes the player from every room they occupy and reports
// whether anything changed.
func (s *gameServiceImpl) dropRoomsOf(playerID int) bool {
	changed := false
	for {
		r, ok := s.rooms.FindByPlayer(playerID)
		if !ok {
			return changed
		}
		s.rooms.RemovePlayer(r.ID, playerID)
		changed = true
	}
}

func (s *gameServiceImpl) send(p *engine.Participant, msgType string, payload interface{}) {
	if p == nil || p.Conn == nil || !p.Conn.Alive() {
		return
	}
	p.Conn.Send(msgType, payload)
}

func gameView(g *engine.Game) *GameView {
	view := &GameView{
		ID:       g.ID,
		Phase:    g.Phase,
		TurnOf:   g.ActivePlayer().ID,
		WinnerID: g.WinnerID,
	}
	for _, p := range g.Players {
		sunk := 0
		for _, ship := range p.Board.Ships {
			if ship.Sunk() {
				sunk++
			}
		}
		view.Players = append(view.Players, ParticipantView{
			ID:            p.ID,
			Name:          p.Name,
			Bot:           p.Bot,
			ShipsPlaced:   len(p.Board.Ships) > 0,
			ShotsReceived: len(p.Board.ShotsReceived),
			ShipsLost:     sunk,
		})
	}
	return view
}
