package domain

import "time"

// CategoryTally counts answers within one category.
type CategoryTally struct {
	Correct int `json:"correct"`
	Total   int `json:"total"`
}

// PerformanceSummary is the end-of-session report. It only contains plain values so it can be
// stored as JSON and read back later.
type PerformanceSummary struct {
	UserName            string                   `json:"userName"`
	TotalQuestions      int                      `json:"totalQuestions"`
	CorrectAnswers      int                      `json:"correctAnswers"`
	WrongAnswers        int                      `json:"wrongAnswers"`
	Percentage          int                      `json:"percentage"`
	Accuracy            int                      `json:"accuracy"`
	TimeTaken           int64                    `json:"timeTaken"`
	TotalTimeMs         int64                    `json:"totalTimeMs"`
	AverageTimeMs       int64                    `json:"averageTimeMs"`
	QuestionsPerMinute  float64                  `json:"questionsPerMinute"`
	BestStreak          int                      `json:"bestStreak"`
	TotalScore          int                      `json:"totalScore"`
	CurrentLevel        int                      `json:"currentLevel"`
	CurrentDifficulty   int                      `json:"currentDifficulty"`
	InitialLevel        int                      `json:"initialLevel"`
	FinalLevel          int                      `json:"finalLevel"`
	InitialDifficulty   int                      `json:"initialDifficulty"`
	FinalDifficulty     int                      `json:"finalDifficulty"`
	NetLevelChange      int                      `json:"netLevelChange"`
	NetDifficultyChange int                      `json:"netDifficultyChange"`
	DropCount           int                      `json:"dropCount"`
	PromotionCount      int                      `json:"promotionCount"`
	Streak              int                      `json:"streak"`
	HasDroppedLevel     bool                     `json:"hasDroppedLevel"`
	PerformanceHistory  []HistoryEntry           `json:"performanceHistory"`
	CategoryPerformance map[string]CategoryTally `json:"categoryPerformance"`
	SessionConfig       SessionConfig            `json:"sessionConfig"`
	AnsweredQuestionIDs []string                 `json:"answeredQuestionIds"`
	CognitiveProfile    *CognitiveProfile        `json:"cognitiveProfile,omitempty"`
}

// CDAIndices are the cognitive diagnostic assessment indices.
type CDAIndices struct {
	KnowledgeMastery map[string]float64 `json:"knowledgeMastery"`
	Adaptability     float64            `json:"adaptability"`
	Consistency      float64            `json:"consistency"`
	Recovery         float64            `json:"recovery"`
	ErrorPersistence float64            `json:"errorPersistence"`
}

// ExecutiveIndices are the timing and resilience indices.
type ExecutiveIndices struct {
	ProcessingSpeed    float64 `json:"processingSpeed"`
	ImpulsivityControl float64 `json:"impulsivityControl"`
	AnalyticalThinking float64 `json:"analyticalThinking"`
	Endurance          float64 `json:"endurance"`
	SelfRegulation     float64 `json:"selfRegulation"`
}

// CognitiveProfile holds every index in [0, 1] plus the generated prose.
type CognitiveProfile struct {
	CDA                 CDAIndices       `json:"cda"`
	ExecutiveFunction   ExecutiveIndices `json:"executiveFunction"`
	ProfessionalSummary string           `json:"professionalSummary"`
}

// Reference is a bibliographic citation shown alongside a profile.
type Reference struct {
	Title     string `json:"title"`
	Author    string `json:"author"`
	Year      int    `json:"year"`
	Publisher string `json:"publisher"`
	Summary   string `json:"summary"`
	APA       string `json:"apa"`
}

// StoredResult is a finished session as persisted by result stores.
type StoredResult struct {
	ID        string             `json:"id"`
	SessionID string             `json:"sessionId"`
	UserID    string             `json:"userId"`
	Summary   PerformanceSummary `json:"summary"`
	Profile   CognitiveProfile   `json:"profile"`
	CreatedAt time.Time          `json:"createdAt"`
}
