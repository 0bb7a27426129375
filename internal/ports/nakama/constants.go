package nakama

const (
	// MatchNameBluff is the authoritative match handler name registered with Nakama.
	MatchNameBluff = "bluff_match"

	// RPC ids clients call over the socket or the HTTP gateway.
	RpcIdCreateRoom = "create_room"
	RpcIdListRooms  = "list_rooms"
	RpcIdQuickMatch = "quick_match"

	// Admin RPC ids. All of them require an admin token in the payload.
	RpcIdAdminKick       = "admin_kick"
	RpcIdAdminBan        = "admin_ban"
	RpcIdAdminUnban      = "admin_unban"
	RpcIdAdminListBans   = "admin_list_bans"
	RpcIdAdminSystemInfo = "admin_system_info"

	// Storage collection holding ban records.
	BanCollection = "moderation_bans"
	BanKey        = "ban"

	// MatchLabelKey_OpenSeats is the label key lobby queries filter on.
	MatchLabelKey_OpenSeats = "open"
)
