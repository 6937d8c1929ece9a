package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"classroom-quiz-service/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type answerDoc struct {
	UserID     string    `bson:"userId"`
	QuestionID string    `bson:"questionId"`
	SessionID  string    `bson:"sessionId"`
	Difficulty string    `bson:"difficulty"`
	Selected   string    `bson:"selected"`
	RawAnswer  string    `bson:"rawAnswer"`
	Correct    bool      `bson:"correct"`
	Points     int       `bson:"points"`
	AnsweredAt time.Time `bson:"answeredAt"`
}

type playerDoc struct {
	UserID      string `bson:"_id"`
	DisplayName string `bson:"displayName"`
}

type tallyRow struct {
	UserID   string      `bson:"_id"`
	Score    int         `bson:"score"`
	Attempts int         `bson:"attempts"`
	Correct  int         `bson:"correct"`
	Player   []playerDoc `bson:"player"`
}

func (r tallyRow) displayName() string {
	if len(r.Player) > 0 && r.Player[0].DisplayName != "" {
		return r.Player[0].DisplayName
	}
	return r.UserID
}

type difficultyRow struct {
	Difficulty string `bson:"_id"`
	Score      int    `bson:"score"`
	Attempts   int    `bson:"attempts"`
	Correct    int    `bson:"correct"`
}

type sessionRow struct {
	SessionID    string    `bson:"_id"`
	Score        int       `bson:"score"`
	Attempts     int       `bson:"attempts"`
	Correct      int       `bson:"correct"`
	LastAnswered time.Time `bson:"lastAnswered"`
}

type answerCollection interface {
	InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error)
	Aggregate(ctx context.Context, pipeline interface{}, opts ...*options.AggregateOptions) (*mongo.Cursor, error)
	Indexes() mongo.IndexView
}

type playerCollection interface {
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) *mongo.SingleResult
}

// ScoreStore persists attempts in MongoDB. A unique index on
// (userId, questionId, sessionId) enforces one attempt per triple.
type ScoreStore struct {
	answers     answerCollection
	players     playerCollection
	playersName string
}

func NewScoreStore(client *mongo.Client, database string) *ScoreStore {
	db := client.Database(database)
	players := db.Collection("players")
	return &ScoreStore{
		answers:     db.Collection("answers"),
		players:     players,
		playersName: players.Name(),
	}
}

// EnsureIndexes creates the uniqueness index attempts rely on.
func (s *ScoreStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.answers.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "questionId", Value: 1}, {Key: "sessionId", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("attempt_unique"),
		},
		{
			Keys:    bson.D{{Key: "sessionId", Value: 1}},
			Options: options.Index().SetName("session"),
		},
	})
	return err
}

// RecordAttempt upserts the player before inserting the answer. The upsert is
// idempotent, so a failure at either step leaves no points recorded.
func (s *ScoreStore) RecordAttempt(ctx context.Context, a domain.Attempt) error {
	update := bson.M{"$setOnInsert": bson.M{"displayName": ""}}
	if a.DisplayName != "" {
		update = bson.M{"$set": bson.M{"displayName": a.DisplayName}}
	}
	if _, err := s.players.UpdateOne(ctx, bson.M{"_id": a.UserID}, update, options.Update().SetUpsert(true)); err != nil {
		return fmt.Errorf("upsert player: %w", err)
	}

	_, err := s.answers.InsertOne(ctx, answerDoc{
		UserID:     a.UserID,
		QuestionID: a.QuestionID,
		SessionID:  a.SessionID,
		Difficulty: a.Difficulty,
		Selected:   string(a.Selected),
		RawAnswer:  a.RawAnswer,
		Correct:    a.Correct,
		Points:     a.Points,
		AnsweredAt: a.AnsweredAt,
	})
	if mongo.IsDuplicateKeyError(err) {
		return domain.ErrDuplicateAttempt
	}
	if err != nil {
		return fmt.Errorf("insert answer: %w", err)
	}
	return nil
}

func (s *ScoreStore) Leaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	rows, err := s.tally(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("leaderboard: %w", err)
	}
	entries := make([]domain.LeaderboardEntry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, domain.LeaderboardEntry{
			UserID:         r.UserID,
			DisplayName:    r.displayName(),
			Score:          r.Score,
			Accuracy:       domain.Accuracy(r.Correct, r.Attempts),
			CorrectAnswers: r.Correct,
			Attempts:       r.Attempts,
		})
	}
	domain.SortLeaderboard(entries)
	return domain.Truncate(entries, limit), nil
}

func (s *ScoreStore) SessionResults(ctx context.Context, sessionID string, limit int) ([]domain.SessionResult, error) {
	rows, err := s.tally(ctx, bson.M{"sessionId": sessionID})
	if err != nil {
		return nil, fmt.Errorf("session results: %w", err)
	}
	results := make([]domain.SessionResult, 0, len(rows))
	for _, r := range rows {
		results = append(results, domain.SessionResult{
			UserID:            r.UserID,
			DisplayName:       r.displayName(),
			SessionScore:      r.Score,
			QuestionsAnswered: r.Attempts,
			CorrectAnswers:    r.Correct,
			Accuracy:          domain.Accuracy(r.Correct, r.Attempts),
		})
	}
	domain.SortResults(results)
	return domain.Truncate(results, limit), nil
}

func (s *ScoreStore) UserStats(ctx context.Context, userID string, recentSessions int) (domain.UserStats, error) {
	match := bson.M{"userId": userID}
	byDifficulty, err := aggregate[difficultyRow](ctx, s.answers, mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.M{
			"_id":      "$difficulty",
			"score":    bson.M{"$sum": "$points"},
			"attempts": bson.M{"$sum": 1},
			"correct":  bson.M{"$sum": bson.M{"$cond": bson.A{"$correct", 1, 0}}},
		}}},
	})
	if err != nil {
		return domain.UserStats{}, fmt.Errorf("user difficulty stats: %w", err)
	}
	if len(byDifficulty) == 0 {
		return domain.UserStats{}, domain.ErrUserNotFound
	}

	var player playerDoc
	err = s.players.FindOne(ctx, bson.M{"_id": userID}).Decode(&player)
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return domain.UserStats{}, fmt.Errorf("find player: %w", err)
	}

	stats := domain.NewUserStats(userID, player.DisplayName)
	for _, r := range byDifficulty {
		stats.AddDifficulty(r.Difficulty, r.Attempts, r.Correct, r.Score)
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.M{
			"_id":          "$sessionId",
			"score":        bson.M{"$sum": "$points"},
			"attempts":     bson.M{"$sum": 1},
			"correct":      bson.M{"$sum": bson.M{"$cond": bson.A{"$correct", 1, 0}}},
			"lastAnswered": bson.M{"$max": "$answeredAt"},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "lastAnswered", Value: -1}, {Key: "_id", Value: 1}}}},
	}
	if recentSessions > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$limit", Value: recentSessions}})
	}
	rows, err := aggregate[sessionRow](ctx, s.answers, pipeline)
	if err != nil {
		return domain.UserStats{}, fmt.Errorf("user sessions: %w", err)
	}
	sessions := make([]domain.SessionSummary, 0, len(rows))
	for _, r := range rows {
		sessions = append(sessions, domain.SessionSummary{
			SessionID:         r.SessionID,
			SessionScore:      r.Score,
			QuestionsAnswered: r.Attempts,
			CorrectAnswers:    r.Correct,
			LastAnswered:      r.LastAnswered.UTC(),
		})
	}
	stats.SetSessions(sessions, recentSessions)
	return stats, nil
}

func (s *ScoreStore) tally(ctx context.Context, match bson.M) ([]tallyRow, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.M{
			"_id":      "$userId",
			"score":    bson.M{"$sum": "$points"},
			"attempts": bson.M{"$sum": 1},
			"correct":  bson.M{"$sum": bson.M{"$cond": bson.A{"$correct", 1, 0}}},
		}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         s.playersName,
			"localField":   "_id",
			"foreignField": "_id",
			"as":           "player",
		}}},
	}
	return aggregate[tallyRow](ctx, s.answers, pipeline)
}

func aggregate[T any](ctx context.Context, answers answerCollection, pipeline mongo.Pipeline) ([]T, error) {
	cursor, err := answers.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []T
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}
