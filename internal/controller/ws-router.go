package controller

import "github.com/studyroom/server/pkg/wsrouter"

func (c controller) initWSMux() *wsrouter.WSRouter {
	mux := wsrouter.New()

	mux.Handle("ALIVE", c.handleAlive)
	mux.Handle("GET_STATE", c.handleGetState)
	mux.Handle("UPDATE_PROFILE", c.handleUpdateProfile)

	mux.Handle("UPDATE_TECHNIQUE", c.handleUpdateTechnique)
	mux.Handle("ADVANCE_PHASE", c.handleAdvancePhase)

	mux.Handle("PUBLISH_QUIZ", c.handlePublishQuiz)
	mux.Handle("SUBMIT_ANSWER", c.handleSubmitAnswer)
	mux.Handle("CLEAR_QUIZ", c.handleClearQuiz)

	mux.Handle("SEND_MESSAGE", c.handleSendMessage)
	mux.Handle("TYPING", c.handleTyping)

	mux.Handle("MODERATE_MEMBER", c.handleModerateMember)

	return mux
}
