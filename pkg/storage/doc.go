// Package storage keeps downloaded media files in one output directory.
//
// The Manager indexes the files already present so a rerun only fetches what
// is missing, and writes new files through a temporary file and a rename so
// an interrupted download never leaves a truncated file under its final name.
//
// Usage:
//
//	manager, err := storage.NewManager("zuck")
//	if err != nil {
//	    return err
//	}
//	if !manager.IsSaved("C8H5FiCtESk_00.jpg") {
//	    _, err = manager.Save(body, "C8H5FiCtESk_00.jpg")
//	}
package storage
