package room

type Room struct {
	Name         string `redis:"name"`
	Topic        string `redis:"topic"`
	Technique    string `redis:"technique"`
	MembersLimit int    `redis:"members_limit"`
	HostId       string `redis:"host_id"`
	CreatedAt    int64  `redis:"created_at"`
}

type Member struct {
	Username string `redis:"username"`
	IsMuted  bool   `redis:"is_muted"`
	IsHost   bool   `redis:"is_host"`
	JoinedAt int64  `redis:"joined_at"`
}

type TechniqueState struct {
	Phase        string `redis:"phase"`
	IsRunning    bool   `redis:"is_running"`
	PhaseEndsAt  int64  `redis:"phase_ends_at"`
	RemainingSec int    `redis:"remaining_sec"`
	CycleCount   int    `redis:"cycle_count"`
	Version      int    `redis:"version"`
}

// Options is stored JSON-encoded because the quiz lives in a redis hash.
type Quiz struct {
	Id           string `redis:"id"`
	Topic        string `redis:"topic"`
	Question     string `redis:"question"`
	Options      string `redis:"options"`
	CorrectIndex int    `redis:"correct_index"`
	CreatedAt    int64  `redis:"created_at"`
}

type QuizAnswer struct {
	MemberId    string
	OptionIndex int
	Order       int
}

type CreateRoomSession struct {
	Username  string `redis:"username"`
	RoomName  string `redis:"room_name"`
	Topic     string `redis:"topic"`
	Technique string `redis:"technique"`
}

type JoinRoomSession struct {
	Username string `redis:"username"`
	RoomId   string `redis:"room_id"`
}
