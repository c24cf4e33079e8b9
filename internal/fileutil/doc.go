// Package fileutil lists the entries of a directory that an organize run may
// consider.
//
// # Purpose
//
// ScanDirectory is the single place the organizer enumerates a root. It:
//   - Lists immediate entries, or walks subdirectories when Recursive is set
//   - Drops protected files and folders, and never descends into a protected
//     folder at any depth (venv, .git and __pycache__ found in nested projects)
//   - Drops folders produced by earlier runs (ExcludeDirs)
//   - Reports symbolic links without following them
//   - Collects non-fatal errors and keeps walking
//   - Sorts output by relative path so repeated scans of an unchanged
//     directory are identical
//
// # Usage
//
//	result, err := fileutil.ScanDirectory(root, fileutil.ScanOptions{
//	    Protected: guard.DefaultProtectedSet(),
//	})
//	if err != nil {
//	    return err
//	}
//	for _, entry := range result.Files() {
//	    fmt.Println(entry.RelPath, entry.Size)
//	}
//
// # Errors
//
// A missing root, or a root that is not a directory, is returned as an error.
// Unreadable subdirectories are recorded in ScanResult.Errors and skipped.
//
// Entries are not validated here. Anything that later reads or moves an entry
// must pass it through guard.Guard first, which is also where symbolic links
// pointing outside the root are refused.
package fileutil
