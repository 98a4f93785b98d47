package store

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/deepnoodle-ai/biographer/memory"
	"github.com/deepnoodle-ai/biographer/question"
)

// MemoryBankStore persists a user's memory bank content, grounded on
// original_source's MemoryBankBase.save_to_file/load_from_file shape
// (`{"memories": [...]}`).
type MemoryBankStore struct {
	root string
}

func NewMemoryBankStore(root string) *MemoryBankStore {
	return &MemoryBankStore{root: root}
}

type memoryBankFile struct {
	Memories []*memory.Memory `json:"memories"`
}

func (s *MemoryBankStore) path(userID string) (string, error) {
	dir, err := userDir(s.root, userID)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "memory_bank_content.json"), nil
}

// Save writes every memory currently in bank.
func (s *MemoryBankStore) Save(userID string, bank *memory.Bank) error {
	path, err := s.path(userID)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(memoryBankFile{Memories: bank.All()}, "", "  ")
	if err != nil {
		return err
	}
	return writeFileAtomic(path, data, 0o644)
}

// Load reads a previously saved memory bank, returning a fresh empty bank
// if none exists yet (matches original_source's FileNotFoundError ->
// empty-bank fallback).
func (s *MemoryBankStore) Load(userID string, embedder memory.Embedder) (*memory.Bank, error) {
	path, err := s.path(userID)
	if err != nil {
		return nil, err
	}
	bank := memory.NewBank(embedder, nil)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return bank, nil
		}
		return nil, err
	}
	var file memoryBankFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, err
	}
	bank.LoadSnapshot(file.Memories)
	return bank, nil
}

// QuestionBankStore persists the historical question bank (the proposed
// bank is session-scoped and never persisted, spec §4.2).
type QuestionBankStore struct {
	root string
}

func NewQuestionBankStore(root string) *QuestionBankStore {
	return &QuestionBankStore{root: root}
}

type questionBankFile struct {
	Questions []*question.Question `json:"questions"`
}

func (s *QuestionBankStore) path(userID string) (string, error) {
	dir, err := userDir(s.root, userID)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "historical_question_bank.json"), nil
}

// Save writes the historical bank's contents.
func (s *QuestionBankStore) Save(userID string, bank *question.Bank) error {
	path, err := s.path(userID)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(questionBankFile{Questions: bank.All()}, "", "  ")
	if err != nil {
		return err
	}
	return writeFileAtomic(path, data, 0o644)
}

// Load reads a previously saved historical question bank, or an empty one
// if none exists yet.
func (s *QuestionBankStore) Load(userID string, embedder memory.Embedder) (*question.Bank, error) {
	path, err := s.path(userID)
	if err != nil {
		return nil, err
	}
	bank := question.NewBank(question.Historical, embedder)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return bank, nil
		}
		return nil, err
	}
	var file questionBankFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, err
	}
	bank.LoadSnapshot(file.Questions)
	return bank, nil
}
