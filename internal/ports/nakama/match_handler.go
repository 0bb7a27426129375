package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"math/rand"
	"strconv"
	"time"

	"bluff/internal/app"
	"bluff/internal/config"
	"bluff/internal/domain"
	"bluff/internal/moderation"
	"bluff/internal/robot"

	"github.com/heroiclabs/nakama-common/runtime"
)

// MatchState holds the authoritative runtime state for the Nakama match handler.
// Every mutation flows through the app service inside the single-threaded match
// loop, so room state never needs locking.
type MatchState struct {
	Room      *domain.Room
	App       *app.Service
	Presences map[string]runtime.Presence
	Robots    map[string]*robot.Agent
	Tick      int64
	TickRate  int

	// Robot "thinking" delay, in ticks. RobotWaitUntil is the tick the robot
	// whose turn it is will act; zero means nothing is scheduled.
	RobotMinDelayTicks int64
	RobotMaxDelayTicks int64
	RobotWaitUntil     int64

	// GraceDeadline is the tick the offline current player's turn is forced.
	TurnGraceTicks int64
	GraceDeadline  int64

	// AutoFillDelayTicks > 0 seats a robot after a solo human waits that long.
	AutoFillDelayTicks int64
	SoloSince          int64

	// EmptySince tracks how long no human has been connected.
	EmptyRoomTicks int64
	EmptySince     int64

	Moderation *moderation.Service

	rng *rand.Rand
}

type matchHandler struct{}

func newMatchHandler() *matchHandler {
	return &matchHandler{}
}

func (mh *matchHandler) MatchInit(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, params map[string]interface{}) (interface{}, int, string) {
	cfg := config.GetGameConfig()

	name := paramString(params, "name", "Bluff room")
	maxPlayers := paramInt(params, "max_players", cfg.MaxPlayers)
	if maxPlayers < app.MinRoomCapacity {
		maxPlayers = app.MinRoomCapacity
	}
	if maxPlayers > app.MaxRoomCapacity {
		maxPlayers = app.MaxRoomCapacity
	}

	matchID, _ := ctx.Value(runtime.RUNTIME_CTX_MATCH_ID).(string)

	tickRate := cfg.TickRate
	if tickRate <= 0 {
		tickRate = 2
	}

	state := &MatchState{
		Room:               domain.NewOpenRoom(matchID, name, maxPlayers),
		App:                app.NewService(nil),
		Presences:          make(map[string]runtime.Presence),
		Robots:             make(map[string]*robot.Agent),
		TickRate:           tickRate,
		RobotMinDelayTicks: int64(cfg.RobotMinDelaySeconds * tickRate),
		RobotMaxDelayTicks: int64(cfg.RobotMaxDelaySeconds * tickRate),
		TurnGraceTicks:     int64(cfg.TurnGraceSeconds * tickRate),
		AutoFillDelayTicks: int64(cfg.RobotAutoFillDelaySeconds * tickRate),
		EmptyRoomTicks:     int64(cfg.EmptyRoomTicks),
		Moderation:         moderation.NewService(NewStorageBanStore(nk), cfg.AdminSecret),
		rng:                rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	// Environment overrides, set per deployment.
	if env, ok := ctx.Value(runtime.RUNTIME_CTX_ENV).(map[string]string); ok {
		if val, ok := env["bluff_robot_min_delay_sec"]; ok {
			if i, err := strconv.Atoi(val); err == nil {
				state.RobotMinDelayTicks = int64(i * tickRate)
			}
		}
		if val, ok := env["bluff_robot_max_delay_sec"]; ok {
			if i, err := strconv.Atoi(val); err == nil {
				state.RobotMaxDelayTicks = int64(i * tickRate)
			}
		}
		if val, ok := env["bluff_robot_auto_fill_delay_sec"]; ok {
			if i, err := strconv.Atoi(val); err == nil {
				state.AutoFillDelayTicks = int64(i * tickRate)
			}
		}
	}
	if state.RobotMinDelayTicks <= 0 {
		state.RobotMinDelayTicks = int64(tickRate)
	}
	if state.RobotMaxDelayTicks < state.RobotMinDelayTicks {
		state.RobotMaxDelayTicks = state.RobotMinDelayTicks
	}

	labelBytes, err := json.Marshal(domain.ComputeLabel(state.Room))
	if err != nil {
		logger.Error("MatchInit: Failed to marshal label: %v", err)
		return nil, 0, ""
	}

	return state, tickRate, string(labelBytes)
}

func (mh *matchHandler) MatchJoinAttempt(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presence runtime.Presence, metadata map[string]string) (interface{}, bool, string) {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state, false, "state not found"
	}

	userID := presence.GetUserId()
	if rec, banned, err := matchState.Moderation.CheckBanned(ctx, userID); err != nil {
		// A storage outage is not a ban; the join proceeds.
		logger.Error("MatchJoinAttempt: Ban check failed for %s: %v", userID, err)
	} else if banned {
		logger.Info("MatchJoinAttempt: Rejected banned user %s (reason: %s)", userID, rec.Reason)
		return matchState, false, "banned"
	}

	room := matchState.Room
	if room.InRoster(userID) {
		// Reconnect, always allowed.
		return matchState, true, ""
	}
	if room.Status == domain.StatusPlaying || room.Status == domain.StatusFinished {
		return matchState, false, "game in progress"
	}
	if len(room.Roster) >= room.MaxPlayers {
		return matchState, false, "room full"
	}
	return matchState, true, ""
}

func (mh *matchHandler) MatchJoin(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchJoin: state not found")
		return state
	}

	for _, p := range presences {
		matchState.Presences[p.GetUserId()] = p

		events, err := matchState.App.Join(matchState.Room, p.GetUserId(), p.GetUsername())
		if err != nil {
			logger.Warn("MatchJoin: Join failed for %s after accepted attempt: %v", p.GetUserId(), err)
			continue
		}
		if matchState.Room.HostID == "" {
			matchState.Room.HostID = matchState.Room.FirstHuman()
		}
		mh.broadcastEvents(matchState, dispatcher, logger, events)
	}

	matchState.EmptySince = 0
	mh.updateLabel(matchState, dispatcher, logger)
	return matchState
}

// MatchLeave fires on any socket drop, voluntary or not. Lobby drops free the
// seat; mid-game drops mark the player offline and leave the seat in play so a
// reconnect resumes cleanly.
func (mh *matchHandler) MatchLeave(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchLeave: state not found")
		return state
	}

	for _, p := range presences {
		delete(matchState.Presences, p.GetUserId())

		events, err := matchState.App.Disconnect(matchState.Room, p.GetUserId())
		if err != nil {
			logger.Debug("MatchLeave: Disconnect for %s: %v", p.GetUserId(), err)
			continue
		}
		mh.broadcastEvents(matchState, dispatcher, logger, events)
	}

	if matchState.Room.HumanCount() == 0 {
		logger.Info("MatchLeave: No humans left, dissolving room.")
		mh.broadcastEvents(matchState, dispatcher, logger, matchState.App.Dissolve(matchState.Room, "no players left"))
		return nil
	}

	mh.updateLabel(matchState, dispatcher, logger)
	return matchState
}

func (mh *matchHandler) MatchLoop(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, messages []runtime.MatchData) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state
	}
	matchState.Tick = tick

	for _, msg := range messages {
		mh.handleMessage(matchState, dispatcher, logger, msg)
	}

	if matchState.Room.HumanCount() == 0 {
		logger.Info("MatchLoop: No humans left, dissolving room.")
		mh.broadcastEvents(matchState, dispatcher, logger, matchState.App.Dissolve(matchState.Room, "no players left"))
		return nil
	}

	mh.processRobots(matchState, dispatcher, logger)
	mh.processOfflineTurn(matchState, dispatcher, logger)
	mh.processAutoFill(matchState, dispatcher, logger)

	// A room nobody is connected to winds down after the configured idle
	// window, games included.
	if len(matchState.Presences) == 0 {
		if matchState.EmptySince == 0 {
			matchState.EmptySince = tick
		}
		if tick-matchState.EmptySince >= matchState.EmptyRoomTicks {
			logger.Info("MatchLoop: Room idle with no connections, dissolving.")
			matchState.App.Dissolve(matchState.Room, "room abandoned")
			return nil
		}
	} else {
		matchState.EmptySince = 0
	}

	return matchState
}

func (mh *matchHandler) handleMessage(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	room := state.Room

	if !room.InRoster(senderID) {
		logger.Warn("handleMessage: Message from %s who holds no seat.", senderID)
		return
	}

	var (
		events []app.Event
		err    error
	)

	switch msg.GetOpCode() {
	case OpReady:
		events, err = state.App.ReadyToggle(room, senderID)

	case OpStartGame:
		request := StartGameRequest{DeckCount: config.GetGameConfig().DefaultDecks, IncludeJokers: config.GetGameConfig().IncludeJokers}
		if len(msg.GetData()) > 0 {
			if uerr := json.Unmarshal(msg.GetData(), &request); uerr != nil {
				mh.sendError(state, dispatcher, logger, senderID, 400, "malformed start request")
				return
			}
		}
		events, err = state.App.Start(room, senderID, request.DeckCount, request.IncludeJokers)

	case OpPlayCards:
		var request PlayCardsRequest
		if uerr := json.Unmarshal(msg.GetData(), &request); uerr != nil {
			mh.sendError(state, dispatcher, logger, senderID, 400, "malformed play request")
			return
		}
		events, err = state.App.Play(room, senderID, request.Cards, request.DeclaredRank, request.DeclaredCount)

	case OpPassTurn:
		events, err = state.App.Pass(room, senderID)

	case OpChallenge:
		events, err = state.App.Challenge(room, senderID)

	case OpLeaveRoom:
		events, err = state.App.Leave(room, senderID)
		if err == nil {
			if p, ok := state.Presences[senderID]; ok {
				delete(state.Presences, senderID)
				_ = dispatcher.MatchKick([]runtime.Presence{p})
			}
		}

	case OpKickPlayer:
		var request KickPlayerRequest
		if uerr := json.Unmarshal(msg.GetData(), &request); uerr != nil {
			mh.sendError(state, dispatcher, logger, senderID, 400, "malformed kick request")
			return
		}
		events, err = state.App.Kick(room, senderID, request.TargetID, request.Reason)
		if err == nil {
			mh.ejectPresence(state, dispatcher, logger, request.TargetID, events)
			return
		}

	case OpAddRobot:
		var request AddRobotRequest
		if len(msg.GetData()) > 0 {
			if uerr := json.Unmarshal(msg.GetData(), &request); uerr != nil {
				mh.sendError(state, dispatcher, logger, senderID, 400, "malformed robot request")
				return
			}
		}
		difficulty := domain.Difficulty(request.Difficulty)
		agent := robot.NewAgent(difficulty, state.rng)
		agent.Name = robot.UniqueName(agent.Name, takenNames(room))
		events, err = state.App.AddRobot(room, senderID, agent.ID, agent.Name, agent.Difficulty)
		if err == nil {
			state.Robots[agent.ID] = agent
		}

	case OpRemoveRobot:
		var request RemoveRobotRequest
		if uerr := json.Unmarshal(msg.GetData(), &request); uerr != nil {
			mh.sendError(state, dispatcher, logger, senderID, 400, "malformed robot request")
			return
		}
		events, err = state.App.RemoveRobot(room, senderID, request.RobotID)
		if err == nil {
			delete(state.Robots, request.RobotID)
		}

	case OpRestart:
		events, err = state.App.Restart(room, senderID)

	case OpChat:
		var request ChatRequest
		if uerr := json.Unmarshal(msg.GetData(), &request); uerr != nil || request.Text == "" {
			return
		}
		mh.relayChat(state, dispatcher, logger, senderID, request.Text)
		return

	default:
		logger.Warn("handleMessage: Unknown opcode %d from %s", msg.GetOpCode(), senderID)
		return
	}

	if err != nil {
		logger.Debug("handleMessage: Op %d from %s rejected: %v", msg.GetOpCode(), senderID, err)
		mh.sendError(state, dispatcher, logger, senderID, 400, err.Error())
		return
	}

	mh.broadcastEvents(state, dispatcher, logger, events)
	mh.updateLabel(state, dispatcher, logger)
}

// processRobots drives the robot whose turn it is after a humanizing delay.
// Robots act through the same app service entry points as humans.
func (mh *matchHandler) processRobots(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	room := state.Room
	if room.Status != domain.StatusPlaying || !room.IsRobot(room.CurrentID) {
		state.RobotWaitUntil = 0
		return
	}

	robotID := room.CurrentID
	if state.RobotWaitUntil == 0 {
		span := state.RobotMaxDelayTicks - state.RobotMinDelayTicks + 1
		state.RobotWaitUntil = state.Tick + state.RobotMinDelayTicks + state.rng.Int63n(span)
		return
	}
	if state.Tick < state.RobotWaitUntil {
		return
	}
	state.RobotWaitUntil = 0

	agent, ok := state.Robots[robotID]
	if !ok {
		// Agent lost across a state handoff, rebuild it at the seat's difficulty.
		agent = robot.NewAgent(room.Robots[robotID], state.rng)
		agent.ID = robotID
		agent.Name = room.Names[robotID]
		state.Robots[robotID] = agent
	}

	decision := agent.Decide(room)
	var (
		events []app.Event
		err    error
	)
	switch {
	case decision.Challenge:
		events, err = state.App.Challenge(room, robotID)
	case decision.Pass:
		events, err = state.App.Pass(room, robotID)
	default:
		events, err = state.App.Play(room, robotID, decision.Cards, decision.DeclaredRank, len(decision.Cards))
	}
	if err != nil {
		logger.Error("processRobots: Robot %s produced an illegal move (%v), forcing turn.", robotID, err)
		events, err = state.App.ForceTurn(room, robotID)
		if err != nil {
			logger.Error("processRobots: ForceTurn for %s failed: %v", robotID, err)
			return
		}
	}
	mh.broadcastEvents(state, dispatcher, logger, events)
	mh.updateLabel(state, dispatcher, logger)
}

// processOfflineTurn holds an offline player's turn for the grace window, then
// acts on their behalf so the table never deadlocks.
func (mh *matchHandler) processOfflineTurn(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	room := state.Room
	if room.Status != domain.StatusPlaying || room.IsRobot(room.CurrentID) || !room.Offline[room.CurrentID] {
		state.GraceDeadline = 0
		return
	}

	if state.GraceDeadline == 0 {
		state.GraceDeadline = state.Tick + state.TurnGraceTicks
		logger.Debug("processOfflineTurn: Holding turn for offline player %s until tick %d.", room.CurrentID, state.GraceDeadline)
		return
	}
	if state.Tick < state.GraceDeadline {
		return
	}
	state.GraceDeadline = 0

	playerID := room.CurrentID
	events, err := state.App.ForceTurn(room, playerID)
	if err != nil {
		logger.Error("processOfflineTurn: ForceTurn for %s failed: %v", playerID, err)
		return
	}
	logger.Info("processOfflineTurn: Forced turn for offline player %s.", playerID)
	mh.broadcastEvents(state, dispatcher, logger, events)
}

// processAutoFill seats a robot opponent for a solo human after the configured
// delay, so a lone player can reach a startable table.
func (mh *matchHandler) processAutoFill(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	if state.AutoFillDelayTicks <= 0 {
		return
	}
	room := state.Room
	if room.Status != domain.StatusWaiting && room.Status != domain.StatusReady {
		state.SoloSince = 0
		return
	}
	if len(room.Roster) != 1 || room.HumanCount() != 1 {
		state.SoloSince = 0
		return
	}

	if state.SoloSince == 0 {
		state.SoloSince = state.Tick
		return
	}
	if state.Tick-state.SoloSince < state.AutoFillDelayTicks {
		return
	}
	state.SoloSince = 0

	cfg := config.GetGameConfig()
	agent := robot.NewAgent(domain.Difficulty(cfg.RobotDifficulty), state.rng)
	agent.Name = robot.UniqueName(agent.Name, takenNames(room))
	events, err := state.App.AddRobot(room, room.HostID, agent.ID, agent.Name, agent.Difficulty)
	if err != nil {
		logger.Warn("processAutoFill: Could not seat robot: %v", err)
		return
	}
	state.Robots[agent.ID] = agent
	logger.Info("processAutoFill: Seated robot %s (%s) for solo host.", agent.Name, agent.ID)
	mh.broadcastEvents(state, dispatcher, logger, events)
	mh.updateLabel(state, dispatcher, logger)
}

// broadcastEvents converts app events to wire messages. Targeted events go only
// to connected recipients; if none of the intended recipients are connected
// (robots, players mid-reconnect) nothing is sent, never a fallback broadcast.
func (mh *matchHandler) broadcastEvents(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, events []app.Event) {
	for _, ev := range events {
		opCode, payload := wireEvent(ev)
		data, err := json.Marshal(payload)
		if err != nil {
			logger.Error("broadcastEvents: Failed to marshal %s event: %v", ev.Kind, err)
			continue
		}

		var recipients []runtime.Presence
		if len(ev.Recipients) > 0 {
			for _, uid := range ev.Recipients {
				if p, ok := state.Presences[uid]; ok {
					recipients = append(recipients, p)
				}
			}
			if len(recipients) == 0 {
				continue
			}
		}
		if err := dispatcher.BroadcastMessage(opCode, data, recipients, nil, true); err != nil {
			logger.Error("broadcastEvents: Broadcast of %s failed: %v", ev.Kind, err)
		}
	}
}

// wireEvent maps an app event to its op code and wire payload. High-traffic
// kinds get dedicated op codes; the rest ride the notification envelope.
func wireEvent(ev app.Event) (int64, any) {
	switch ev.Kind {
	case app.EventRoomState:
		return OpRoomState, ev.Payload
	case app.EventHandDealt, app.EventHandUpdated:
		return OpHandDealt, ev.Payload
	case app.EventChallengeResolved:
		return OpChallengeResult, ev.Payload
	case app.EventGameEnded:
		return OpGameEnded, ev.Payload
	case app.EventForcedExit:
		return OpForcedExit, ev.Payload
	case app.EventRoomDissolved:
		return OpRoomDissolved, ev.Payload
	default:
		return OpNotification, Notification{Type: string(ev.Kind), Data: ev.Payload}
	}
}

func (mh *matchHandler) relayChat(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, senderID, text string) {
	data, err := json.Marshal(ChatMessage{
		SenderID: senderID,
		Sender:   state.Room.Names[senderID],
		Text:     text,
	})
	if err != nil {
		logger.Error("relayChat: Marshal failed: %v", err)
		return
	}
	if err := dispatcher.BroadcastMessage(OpChatMessage, data, nil, nil, true); err != nil {
		logger.Error("relayChat: Broadcast failed: %v", err)
	}
}

// sendError delivers a rejection privately to the offending sender.
func (mh *matchHandler) sendError(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, userID string, code int, message string) {
	presence, ok := state.Presences[userID]
	if !ok {
		return
	}
	data, err := json.Marshal(GameError{Code: code, Message: message})
	if err != nil {
		logger.Error("sendError: Marshal failed: %v", err)
		return
	}
	if err := dispatcher.BroadcastMessage(OpGameError, data, []runtime.Presence{presence}, nil, true); err != nil {
		logger.Error("sendError: Broadcast failed: %v", err)
	}
}

// ejectPresence broadcasts removal events, then kicks the target's socket out
// of the match. Ordering matters: the target must receive their forced-exit
// notice before the kick severs delivery.
func (mh *matchHandler) ejectPresence(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, targetID string, events []app.Event) {
	mh.broadcastEvents(state, dispatcher, logger, events)
	if p, ok := state.Presences[targetID]; ok {
		delete(state.Presences, targetID)
		if err := dispatcher.MatchKick([]runtime.Presence{p}); err != nil {
			logger.Error("ejectPresence: MatchKick for %s failed: %v", targetID, err)
		}
	}
	mh.updateLabel(state, dispatcher, logger)
}

func (mh *matchHandler) updateLabel(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	labelBytes, err := json.Marshal(domain.ComputeLabel(state.Room))
	if err != nil {
		logger.Error("updateLabel: Failed to marshal: %v", err)
		return
	}
	if err := dispatcher.MatchLabelUpdate(string(labelBytes)); err != nil {
		logger.Error("updateLabel: Failed to update: %v", err)
	}
}

func (mh *matchHandler) MatchTerminate(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, graceSeconds int) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state
	}
	mh.broadcastEvents(matchState, dispatcher, logger, matchState.App.Dissolve(matchState.Room, "server shutdown"))
	return matchState
}

// MatchSignal carries moderation commands from admin RPCs into the match loop,
// so forced removals serialize with normal play.
func (mh *matchHandler) MatchSignal(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, data string) (interface{}, string) {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state, "state not found"
	}

	var signal ModerationSignal
	if err := json.Unmarshal([]byte(data), &signal); err != nil {
		return matchState, "malformed signal"
	}

	switch signal.Action {
	case "kick", "ban":
		events, err := matchState.App.ForceRemove(matchState.Room, signal.UserID, signal.Reason)
		if err != nil {
			return matchState, err.Error()
		}
		delete(matchState.Robots, signal.UserID)
		mh.ejectPresence(matchState, dispatcher, logger, signal.UserID, events)
		logger.Info("MatchSignal: %s removed from room (%s).", signal.UserID, signal.Action)
		return matchState, "ok"
	default:
		return matchState, "unknown action"
	}
}

func takenNames(room *domain.Room) map[string]bool {
	taken := make(map[string]bool, len(room.Names))
	for _, name := range room.Names {
		taken[name] = true
	}
	return taken
}

func paramString(params map[string]interface{}, key, fallback string) string {
	if v, ok := params[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

func paramInt(params map[string]interface{}, key string, fallback int) int {
	switch v := params[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	case string:
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
