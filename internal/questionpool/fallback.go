package questionpool

import "adaptive-quiz-service/internal/domain"

// fallbackRecords is the built-in sample bank served when no dataset is configured.
// Levels above the ladder are clamped by Normalize.
var fallbackRecords = []Raw{
	{"id": "q1", "level": 1, "category": "General Knowledge", "question": "What is the capital of France?",
		"options": []any{"London", "Berlin", "Paris", "Madrid"}, "answerIndex": 2,
		"explanation": "Paris is the capital and largest city of France."},
	{"id": "q2", "level": 1, "category": "Science", "question": "How many planets are in our solar system?",
		"options": []any{"7", "8", "9", "10"}, "answerIndex": 1,
		"explanation": "There are 8 planets in our solar system: Mercury, Venus, Earth, Mars, Jupiter, Saturn, Uranus, and Neptune."},
	{"id": "q3", "level": 1, "category": "Mathematics", "question": "What is 2 + 2?",
		"options": []any{"3", "4", "5", "6"}, "answerIndex": 1,
		"explanation": "2 + 2 equals 4."},
	{"id": "q4", "level": 2, "category": "History", "question": "In which year did World War II end?",
		"options": []any{"1943", "1944", "1945", "1946"}, "answerIndex": 2,
		"explanation": "World War II ended in 1945."},
	{"id": "q5", "level": 2, "category": "Science", "question": "What is the chemical symbol for water?",
		"options": []any{"H2O", "CO2", "O2", "NaCl"}, "answerIndex": 0,
		"explanation": "H2O is the chemical formula for water, consisting of two hydrogen atoms and one oxygen atom."},
	{"id": "q6", "level": 2, "category": "Geography", "question": "Which is the largest ocean on Earth?",
		"options": []any{"Atlantic Ocean", "Indian Ocean", "Arctic Ocean", "Pacific Ocean"}, "answerIndex": 3,
		"explanation": "The Pacific Ocean is the largest and deepest ocean on Earth."},
	{"id": "q7", "level": 3, "category": "Science", "question": "What is the speed of light in a vacuum?",
		"options": []any{"299,792,458 m/s", "300,000,000 m/s", "150,000,000 m/s", "450,000,000 m/s"}, "answerIndex": 0,
		"explanation": "The speed of light in a vacuum is exactly 299,792,458 meters per second."},
	{"id": "q8", "level": 3, "category": "Literature", "question": "Who wrote 1984?",
		"options": []any{"George Orwell", "Aldous Huxley", "Ray Bradbury", "J.D. Salinger"}, "answerIndex": 0,
		"explanation": "1984 was written by George Orwell and published in 1949."},
	{"id": "q9", "level": 3, "category": "Mathematics", "question": "What is the square root of 144?",
		"options": []any{"10", "11", "12", "13"}, "answerIndex": 2,
		"explanation": "The square root of 144 is 12, because 12 × 12 = 144."},
	{"id": "q10", "level": 4, "category": "Science", "question": "What is the approximate age of the universe according to current estimates?",
		"options": []any{"10.5 billion years", "13.8 billion years", "15.2 billion years", "18.6 billion years"}, "answerIndex": 1,
		"explanation": "The universe is approximately 13.8 billion years old according to current scientific estimates."},
	{"id": "q11", "level": 4, "category": "History", "question": "Which ancient civilization built the Machu Picchu?",
		"options": []any{"Aztec", "Maya", "Inca", "Olmec"}, "answerIndex": 2,
		"explanation": "Machu Picchu was built by the Inca civilization in the 15th century."},
	{"id": "q12", "level": 4, "category": "Mathematics", "question": "What is the value of π (pi) to two decimal places?",
		"options": []any{"3.12", "3.14", "3.16", "3.18"}, "answerIndex": 1,
		"explanation": "The value of π (pi) is approximately 3.14159, which rounds to 3.14 to two decimal places."},
	{"id": "q13", "level": 5, "category": "Science", "question": "What is the Heisenberg Uncertainty Principle?",
		"options": []any{
			"Energy cannot be created or destroyed",
			"It is impossible to simultaneously know exact position and momentum of a particle",
			"Light behaves as both wave and particle",
			"Matter and energy are equivalent",
		}, "answerIndex": 1,
		"explanation": "The Heisenberg Uncertainty Principle states that the more precisely the position of a particle is known, the less precisely its momentum can be known, and vice versa."},
	{"id": "q14", "level": 5, "category": "Mathematics", "question": "What is the derivative of e^x?",
		"options": []any{"e^x", "x·e^x", "e^(x-1)", "ln(x)"}, "answerIndex": 0,
		"explanation": "The derivative of e^x is e^x itself. This is a fundamental property of the exponential function."},
	{"id": "q15", "level": 5, "category": "Philosophy", "question": "Who is known for the phrase Cogito ergo sum (I think, therefore I am)?",
		"options": []any{"Plato", "Aristotle", "René Descartes", "Immanuel Kant"}, "answerIndex": 2,
		"explanation": "Cogito ergo sum is a philosophical statement by René Descartes, expressing the certainty of one's own existence through the act of thinking."},
}

// FallbackRecords returns a copy of the built-in raw records.
func FallbackRecords() []Raw {
	out := make([]Raw, len(fallbackRecords))
	for i, r := range fallbackRecords {
		cp := make(Raw, len(r))
		for k, v := range r {
			cp[k] = v
		}
		out[i] = cp
	}
	return out
}

// Fallback returns the built-in sample pool, normalized.
func Fallback() []domain.Question {
	return Normalize(fallbackRecords)
}
