package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stemsi/quizwizz-backend/internal/model"
)

// ReplaceQuestions deletes a quiz's questions (options cascade) and inserts the new set.
// Callers run it inside InTx so the swap is atomic.
func (s *PGStore) ReplaceQuestions(ctx context.Context, quizID uuid.UUID, questions []model.Question) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM questions WHERE quiz_id = $1`, quizID); err != nil {
		return err
	}
	if len(questions) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, q := range questions {
		batch.Queue(
			`INSERT INTO questions (id, quiz_id, question_text, question_type, points, order_num)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			q.ID, quizID, q.Text, q.Type, q.Points, q.OrderNum,
		)
		for _, o := range q.Options {
			batch.Queue(
				`INSERT INTO question_options (id, question_id, option_text, is_correct, order_num)
				 VALUES ($1, $2, $3, $4, $5)`,
				o.ID, q.ID, o.Text, o.IsCorrect, o.OrderNum,
			)
		}
	}
	return s.db.SendBatch(ctx, batch).Close()
}

// ListQuestions retrieves a quiz's questions ordered by order_num, each with its ordered options.
func (s *PGStore) ListQuestions(ctx context.Context, quizID uuid.UUID) ([]model.Question, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, quiz_id, question_text, question_type, points, order_num
		 FROM questions WHERE quiz_id = $1
		 ORDER BY order_num, id`, quizID,
	)
	if err != nil {
		return nil, err
	}

	var questions []model.Question
	index := make(map[uuid.UUID]int)
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.QuizID, &q.Text, &q.Type, &q.Points, &q.OrderNum); err != nil {
			rows.Close()
			return nil, err
		}
		index[q.ID] = len(questions)
		questions = append(questions, q)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return questions, nil
	}

	optRows, err := s.db.Query(ctx,
		`SELECT o.id, o.question_id, o.option_text, o.is_correct, o.order_num
		 FROM question_options o
		 JOIN questions q ON q.id = o.question_id
		 WHERE q.quiz_id = $1
		 ORDER BY o.order_num, o.id`, quizID,
	)
	if err != nil {
		return nil, err
	}
	defer optRows.Close()

	for optRows.Next() {
		var o model.Option
		if err := optRows.Scan(&o.ID, &o.QuestionID, &o.Text, &o.IsCorrect, &o.OrderNum); err != nil {
			return nil, err
		}
		if i, ok := index[o.QuestionID]; ok {
			questions[i].Options = append(questions[i].Options, o)
		}
	}
	return questions, optRows.Err()
}
