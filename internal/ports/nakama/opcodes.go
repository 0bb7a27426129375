package nakama

// Op codes for client messages and server events.
const (
	// Client -> Server
	OpReady       int64 = 1
	OpStartGame   int64 = 2
	OpPlayCards   int64 = 3
	OpPassTurn    int64 = 4
	OpChallenge   int64 = 5
	OpLeaveRoom   int64 = 6
	OpAddRobot    int64 = 7
	OpRemoveRobot int64 = 8
	OpChat        int64 = 9
	OpKickPlayer  int64 = 10
	OpRestart     int64 = 11

	// Server -> Client events
	OpRoomState       int64 = 101
	OpHandDealt       int64 = 102 // send privately
	OpNotification    int64 = 103
	OpChatMessage     int64 = 104
	OpChallengeResult int64 = 105
	OpGameEnded       int64 = 106
	OpGameError       int64 = 107
	OpForcedExit      int64 = 108 // send privately
	OpRoomDissolved   int64 = 109
)
