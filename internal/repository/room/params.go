package room

type SetRoomParams struct {
	RoomId       string
	Name         string
	Topic        string
	Technique    string
	MembersLimit int
	HostId       string
	CreatedAt    int64
}

type SetMemberParams struct {
	MemberId string
	Username string
	IsMuted  bool
	IsHost   bool
	JoinedAt int64
	RoomId   string
}

type GetMemberParams struct {
	MemberId string
	RoomId   string
}

type RemoveMemberParams struct {
	MemberId string
	RoomId   string
}

type SetTechniqueStateParams struct {
	Phase        string
	IsRunning    bool
	PhaseEndsAt  int64
	RemainingSec int
	CycleCount   int
	Version      int
	RoomId       string
}

type SetQuizParams struct {
	QuizId       string
	Topic        string
	Question     string
	Options      string
	CorrectIndex int
	CreatedAt    int64
	RoomId       string
}

type AddQuizAnswerParams struct {
	MemberId    string
	OptionIndex int
	RoomId      string
}

type AddChatMessageParams struct {
	RoomId  string
	Message []byte
}

type GetChatMessagesParams struct {
	RoomId string
	Limit  int
}

type SetCreateRoomSessionParams struct {
	ConnectToken string
	Username     string
	RoomName     string
	Topic        string
	Technique    string
}

type SetJoinRoomSessionParams struct {
	ConnectToken string
	Username     string
	RoomId       string
}

type ExpireRoomParams struct {
	RoomId   string
	ExpireAt int64
}
