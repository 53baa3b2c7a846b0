// Package keyset builds keyset (seek) pagination queries for GORM.
//
// A Query holds a page size, a multi-column ordering and an optional Cursor.
// The cursor stores the ordering columns of the last row of the previous page
// together with a strict comparison operator per column:
//
//	[(C1, O1, V1), (C2, O2, V2), ... (Cn, On, Vn)]
//
// and expands into the filter
//
//	(C1 O1 V1) OR (C1 = V1 AND C2 O2 V2) OR ...
//
// The ordering must end with a unique column, otherwise rows sharing the
// same values may be skipped.
//
// Cursors are serialized as base64 encoded JSON, which makes Cursor.String a
// stable, comparable page key.
package keyset
