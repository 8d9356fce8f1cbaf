package room

type RoomInfo struct {
	Id           string `json:"id"`
	Name         string `json:"name"`
	Topic        string `json:"topic"`
	Technique    string `json:"technique"`
	MembersLimit int    `json:"members_limit"`
	HostId       string `json:"host_id"`
}

type Member struct {
	Id       string `json:"id"`
	Username string `json:"username"`
	IsMuted  bool   `json:"is_muted"`
	IsHost   bool   `json:"is_host"`
	JoinedAt int64  `json:"joined_at"`
}

type TechniqueState struct {
	Phase        string `json:"phase"`
	PhaseLabel   string `json:"phase_label"`
	PhasePrompt  string `json:"phase_prompt"`
	IsRunning    bool   `json:"is_running"`
	PhaseEndsAt  int64  `json:"phase_ends_at"`
	RemainingSec int    `json:"remaining_sec"`
	CycleCount   int    `json:"cycle_count"`
	Version      int    `json:"version"`
}

type Quiz struct {
	Id           string       `json:"id"`
	Topic        string       `json:"topic"`
	Question     string       `json:"question"`
	Options      []string     `json:"options"`
	CorrectIndex int          `json:"correct_index"`
	Answers      []QuizAnswer `json:"answers"`
}

type QuizAnswer struct {
	MemberId    string `json:"member_id"`
	OptionIndex int    `json:"option_index"`
	Order       int    `json:"order"`
}

type LeaderboardEntry struct {
	MemberId string `json:"member_id"`
	Username string `json:"username"`
	Score    int    `json:"score"`
}

type ChatMessage struct {
	Id       string `json:"id"`
	RoomId   string `json:"room_id"`
	SenderId string `json:"sender_id"`
	Username string `json:"username"`
	Text     string `json:"text"`
	SentAt   int64  `json:"sent_at"`
}

type RoomState struct {
	Room           RoomInfo       `json:"room"`
	Members        []Member       `json:"members"`
	TechniqueState TechniqueState `json:"technique_state"`
	Quiz           *Quiz          `json:"quiz"`
	ChatHistory    []ChatMessage  `json:"chat_history"`
}
