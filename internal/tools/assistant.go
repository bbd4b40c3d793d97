package tools

import "math/rand/v2"

// WelcomeMessage greets the user when the assistant panel opens.
const WelcomeMessage = "Добро пожаловать! Я Крис, ваш ИИ-ассистент для OSINT работы. Готов помочь с анализом данных и выбором инструментов."

// AssistantReplies are the scripted answers.
var AssistantReplies = []string{
	"Привет! Я Крис, ваш OSINT ассистент. Чем могу помочь?",
	"Для эффективного поиска рекомендую начать с базовой информации о цели.",
	"Попробуйте использовать несколько источников для проверки данных.",
	"Помните о важности конфиденциальности и этичности в OSINT работе.",
	"Могу помочь с анализом полученных данных или выбором инструментов.",
}

// AssistantRequest is a chat message to the assistant.
type AssistantRequest struct {
	Message string `json:"message"`
}

// Assistant picks scripted replies. The message content is not inspected.
type Assistant struct {
	pick func(n int) int
}

// NewAssistant returns an assistant choosing replies at random.
func NewAssistant() *Assistant {
	return &Assistant{pick: rand.IntN}
}

// Reply answers a chat message.
func (a *Assistant) Reply(req AssistantRequest) (string, error) {
	if err := required("message", req.Message); err != nil {
		return "", err
	}
	return AssistantReplies[a.pick(len(AssistantReplies))], nil
}
