package note

import (
	"context"
	"time"

	"github.com/pot-code/brain-trails/internal/infrastructure/driver"
	"github.com/pot-code/brain-trails/internal/infrastructure/uuid"
)

type NoteSQL struct {
	Conn          driver.ITransactionalDB
	UUIDGenerator uuid.Generator
}

var _ NoteRepository = &NoteSQL{}

func NewNoteRepository(Conn driver.ITransactionalDB, UUIDGenerator uuid.Generator) *NoteSQL {
	return &NoteSQL{Conn, UUIDGenerator}
}

func (repo *NoteSQL) queryNotes(ctx context.Context, query string, args ...interface{}) ([]*NoteModel, error) {
	rows, err := repo.Conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]*NoteModel, 0)
	for rows.Next() {
		item := &NoteModel{Tags: make([]*TagModel, 0)}
		if err := rows.Scan(&item.ID, &item.UserID, &item.Title, &item.Content, &item.Summary,
			&item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	return result, rows.Err()
}

// attachTags load tags of notes, query runs after the note rows are closed
func (repo *NoteSQL) attachTags(ctx context.Context, notes []*NoteModel, query string, args ...interface{}) error {
	if len(notes) == 0 {
		return nil
	}
	byID := make(map[string]*NoteModel, len(notes))
	for _, n := range notes {
		byID[n.ID] = n
	}

	rows, err := repo.Conn.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var noteID string
		tag := new(TagModel)
		if err := rows.Scan(&noteID, &tag.ID, &tag.Name, &tag.Color); err != nil {
			return err
		}
		if n, ok := byID[noteID]; ok {
			n.Tags = append(n.Tags, tag)
		}
	}
	return rows.Err()
}

const noteColumns = `id, user_id, title, content, summary, created_at, updated_at`

// ListNotes most recently updated first
func (repo *NoteSQL) ListNotes(ctx context.Context, userID string) ([]*NoteModel, error) {
	notes, err := repo.queryNotes(ctx, `SELECT `+noteColumns+` FROM notes WHERE user_id = $1
	ORDER BY updated_at DESC, id DESC`, userID)
	if err != nil {
		return nil, err
	}
	err = repo.attachTags(ctx, notes, `SELECT nt.note_id, t.id, t.name, t.color
	FROM note_tags nt
	JOIN tags t ON t.id = nt.tag_id
	JOIN notes n ON n.id = nt.note_id
	WHERE n.user_id = $1 ORDER BY t.name`, userID)
	return notes, err
}

func (repo *NoteSQL) FindNote(ctx context.Context, userID, noteID string) (*NoteModel, error) {
	notes, err := repo.queryNotes(ctx, `SELECT `+noteColumns+` FROM notes WHERE id = $1 AND user_id = $2`, noteID, userID)
	if err != nil || len(notes) == 0 {
		return nil, err
	}
	err = repo.attachTags(ctx, notes, `SELECT nt.note_id, t.id, t.name, t.color
	FROM note_tags nt JOIN tags t ON t.id = nt.tag_id
	WHERE nt.note_id = $1 ORDER BY t.name`, noteID)
	return notes[0], err
}

// SaveNote insert the note and link tags, creating missing ones
func (repo *NoteSQL) SaveNote(ctx context.Context, note *NoteModel, tags []string) error {
	id, err := repo.UUIDGenerator.Generate()
	if err != nil {
		return err
	}
	note.ID = id
	now := time.Now().UTC()
	note.CreatedAt, note.UpdatedAt = now, now

	return driver.WithTx(ctx, repo.Conn, nil, func(tx driver.ITransactionalDB) error {
		if _, err := tx.ExecContext(ctx, `INSERT INTO notes (id, user_id, title, content, summary, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`, note.ID, note.UserID, note.Title, note.Content, note.Summary,
			note.CreatedAt, note.UpdatedAt); err != nil {
			return err
		}
		linked, err := repo.linkTags(ctx, tx, note.ID, tags)
		note.Tags = linked
		return err
	})
}

// UpdateNote write fields, tags are replaced only when replaceTags is set
func (repo *NoteSQL) UpdateNote(ctx context.Context, note *NoteModel, tags []string, replaceTags bool) error {
	note.UpdatedAt = time.Now().UTC()
	return driver.WithTx(ctx, repo.Conn, nil, func(tx driver.ITransactionalDB) error {
		if _, err := tx.ExecContext(ctx, `UPDATE notes SET title = $1, content = $2, summary = $3, updated_at = $4
		WHERE id = $5`, note.Title, note.Content, note.Summary, note.UpdatedAt, note.ID); err != nil {
			return err
		}
		if !replaceTags {
			return nil
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM note_tags WHERE note_id = $1`, note.ID); err != nil {
			return err
		}
		linked, err := repo.linkTags(ctx, tx, note.ID, tags)
		note.Tags = linked
		return err
	})
}

func (repo *NoteSQL) linkTags(ctx context.Context, tx driver.ITransactionalDB, noteID string, names []string) ([]*TagModel, error) {
	linked := make([]*TagModel, 0, len(names))
	for _, name := range names {
		tag, err := repo.ensureTag(ctx, tx, name)
		if err != nil {
			return nil, err
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO note_tags (note_id, tag_id) VALUES ($1, $2)`, noteID, tag.ID); err != nil {
			return nil, err
		}
		linked = append(linked, tag)
	}
	return linked, nil
}

func (repo *NoteSQL) ensureTag(ctx context.Context, tx driver.ITransactionalDB, name string) (*TagModel, error) {
	rows, err := tx.QueryContext(ctx, `SELECT id, name, color FROM tags WHERE name = $1`, name)
	if err != nil {
		return nil, err
	}
	var tag *TagModel
	if rows.Next() {
		tag = new(TagModel)
		err = rows.Scan(&tag.ID, &tag.Name, &tag.Color)
	}
	rows.Close()
	if err != nil {
		return nil, err
	}
	if tag != nil {
		return tag, nil
	}

	id, err := repo.UUIDGenerator.Generate()
	if err != nil {
		return nil, err
	}
	tag = &TagModel{ID: id, Name: name, Color: DefaultTagColor}
	_, err = tx.ExecContext(ctx, `INSERT INTO tags (id, name, color) VALUES ($1, $2, $3)`, tag.ID, tag.Name, tag.Color)
	return tag, err
}

func (repo *NoteSQL) DeleteNote(ctx context.Context, userID, noteID string) (bool, error) {
	res, err := repo.Conn.ExecContext(ctx, `DELETE FROM notes WHERE id = $1 AND user_id = $2`, noteID, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (repo *NoteSQL) ListTags(ctx context.Context) ([]*TagModel, error) {
	rows, err := repo.Conn.QueryContext(ctx, `SELECT id, name, color FROM tags ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]*TagModel, 0)
	for rows.Next() {
		tag := new(TagModel)
		if err := rows.Scan(&tag.ID, &tag.Name, &tag.Color); err != nil {
			return nil, err
		}
		result = append(result, tag)
	}
	return result, rows.Err()
}
