package service

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// StringSet is a set of strings (all elements are unique)
type StringSet map[string]struct{}

// Push adds the string to the set if not already exists
func (ss StringSet) Push(s string) {
	ss[s] = struct{}{}
}

// Pop removes the string from the set
func (ss StringSet) Pop(s string) {
	delete(ss, s)
}

// Slice returns a slice from the set
func (ss StringSet) Slice() []string {
	sl := make([]string, 0, len(ss))
	for k := range ss {
		sl = append(sl, k)
	}
	return sl
}

// Exists returns true if the string already exists in the Set
func (ss StringSet) Exists(s string) bool {
	_, ok := ss[s]
	return ok
}

// ToJSON writes v as a json file in the working dir (nothing is written if workingdir is empty)
func ToJSON(v interface{}, workingdir, filename string) error {
	if workingdir != "" {
		vb, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("toJSON.Marshal: %w", err)
		}
		if err := os.WriteFile(filepath.Join(workingdir, filename), vb, 0644); err != nil {
			return fmt.Errorf("toJSON.WriteFile: %w", err)
		}
	}
	return nil
}

// MkdirAllIdempotent creates the directories if they do not already exist
func MkdirAllIdempotent(dirs ...string) error {
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0766); err != nil {
			return MakeTemporary(fmt.Errorf("make directory %s: %w", dir, err))
		}
	}
	return nil
}
