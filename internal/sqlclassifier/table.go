package sqlclassifier

import (
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"
)

// applyRangeVar fills the object name/schema/type fields from a RangeVar,
// the node type Postgres uses for every "this statement is about a table"
// reference (CREATE TABLE, ALTER TABLE, INSERT INTO, ...). A nil RangeVar
// leaves the statement's fields untouched; callers are expected to degrade
// gracefully rather than fail classification over missing metadata.
func applyRangeVar(s *Statement, rv *pg_query.RangeVar, objType string) {
	if rv == nil {
		return
	}
	if s.ObjectType == "" {
		s.ObjectType = objType
	}
	s.ObjectName = rv.GetRelname()
	s.Schema = rv.GetSchemaname()
}

// asRangeVar type-asserts a generic list element down to a RangeVar, as
// found in TruncateStmt.Relations and similar "list of relation" fields.
func asRangeVar(n *pg_query.Node) *pg_query.RangeVar {
	if n == nil {
		return nil
	}
	if rv, ok := n.Node.(*pg_query.Node_RangeVar); ok {
		return rv.RangeVar
	}
	return nil
}

// lastNamePart extracts the final component of a dotted qualified name
// (e.g. CreateFunctionStmt.Funcname), which pg_query represents as a
// []*Node of String nodes.
func lastNamePart(parts []*pg_query.Node) string {
	name, _ := splitSchemaQualified(lastNode(parts))
	return name
}

// lastRoleName extracts the final role name out of a []*Node of RoleSpec
// nodes, as found in DropRoleStmt.Roles.
func lastRoleName(parts []*pg_query.Node) string {
	n := lastNode(parts)
	if n == nil {
		return ""
	}
	if rs, ok := n.Node.(*pg_query.Node_RoleSpec); ok && rs.RoleSpec != nil {
		return rs.RoleSpec.GetRolename()
	}
	return ""
}

func lastNode(parts []*pg_query.Node) *pg_query.Node {
	if len(parts) == 0 {
		return nil
	}
	return parts[len(parts)-1]
}

// splitSchemaQualified pulls a name/schema pair out of a single
// name-bearing node: a RangeVar yields its relname and schemaname, a bare
// String node yields its value with no schema part. Dotted name lists go
// through splitSchemaQualifiedList instead.
func splitSchemaQualified(n *pg_query.Node) (name, schema string) {
	if n == nil {
		return "", ""
	}
	if rv, ok := n.Node.(*pg_query.Node_RangeVar); ok && rv.RangeVar != nil {
		return rv.RangeVar.GetRelname(), rv.RangeVar.GetSchemaname()
	}
	return stringValue(n), ""
}

func splitSchemaQualifiedList(parts []*pg_query.Node) (name, schema string) {
	strs := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := stringValue(p); v != "" {
			strs = append(strs, v)
		}
	}
	switch len(strs) {
	case 0:
		return "", ""
	case 1:
		return strs[0], ""
	default:
		return strs[len(strs)-1], strs[len(strs)-2]
	}
}

func stringValue(n *pg_query.Node) string {
	if n == nil {
		return ""
	}
	if s, ok := n.Node.(*pg_query.Node_String_); ok {
		return s.String_.GetSval()
	}
	return ""
}

// firstDropObject returns a name-bearing node out of DropStmt.Objects or
// GrantStmt.Objects. Depending on the object type, pg_query represents each
// entry as a List of String nodes (dotted qualified name), a bare RangeVar
// (GRANT ... ON TABLE), or a bare String. Only the first object is used for
// migration-name derivation; the recorder still records every statement in
// the batch regardless. For a dotted name list only the last element (the
// object name) is returned, so the schema part is not carried over. This
// is purely a naming aid and degrades to an empty name/schema rather than
// failing classification.
func firstDropObject(objects []*pg_query.Node) *pg_query.Node {
	if len(objects) == 0 {
		return nil
	}
	first := objects[0]
	if lst, ok := first.Node.(*pg_query.Node_List); ok && lst.List != nil {
		return lastNode(lst.List.GetItems())
	}
	return first
}

// splitSchemaQualified additionally recognizes a bare RangeVar, since
// GrantStmt.Objects for OBJECT_TABLE carries RangeVar nodes directly rather
// than a dotted name list.

// targetListColumns extracts SET-clause column names from an UpdateStmt's
// TargetList, each element a ResTarget node naming the assigned column.
func targetListColumns(targets []*pg_query.Node) []string {
	cols := make([]string, 0, len(targets))
	for _, t := range targets {
		if rt, ok := t.Node.(*pg_query.Node_ResTarget); ok && rt.ResTarget != nil {
			if name := rt.ResTarget.GetName(); name != "" {
				cols = append(cols, name)
			}
		}
	}
	return cols
}

// objectTypeName renders a pg_query ObjectType enum value the way the
// spec's object_type column expects: lowercase, space-separated.
func objectTypeName(ot pg_query.ObjectType) string {
	switch ot {
	case pg_query.ObjectType_OBJECT_TABLE:
		return "table"
	case pg_query.ObjectType_OBJECT_INDEX:
		return "index"
	case pg_query.ObjectType_OBJECT_VIEW:
		return "view"
	case pg_query.ObjectType_OBJECT_MATVIEW:
		return "materialized view"
	case pg_query.ObjectType_OBJECT_SEQUENCE:
		return "sequence"
	case pg_query.ObjectType_OBJECT_SCHEMA:
		return "schema"
	case pg_query.ObjectType_OBJECT_COLUMN:
		return "column"
	case pg_query.ObjectType_OBJECT_FUNCTION:
		return "function"
	case pg_query.ObjectType_OBJECT_PROCEDURE:
		return "procedure"
	case pg_query.ObjectType_OBJECT_TRIGGER:
		return "trigger"
	case pg_query.ObjectType_OBJECT_TYPE:
		return "type"
	case pg_query.ObjectType_OBJECT_DOMAIN:
		return "domain"
	case pg_query.ObjectType_OBJECT_EXTENSION:
		return "extension"
	case pg_query.ObjectType_OBJECT_POLICY:
		return "policy"
	case pg_query.ObjectType_OBJECT_ROLE:
		return "role"
	case pg_query.ObjectType_OBJECT_DATABASE:
		return "database"
	case pg_query.ObjectType_OBJECT_FOREIGN_TABLE:
		return "foreign table"
	default:
		return ""
	}
}

// privilegeName renders a GrantStmt's Privileges list into the closed set
// the migration deriver's DCL naming branch expects: select, insert, update,
// delete, all, or "privilege" as a catch-all for anything else (multiple
// distinct privileges, or a privilege name outside the set). An empty list
// means "ALL PRIVILEGES" in Postgres' own grammar.
func privilegeName(privs []*pg_query.Node) string {
	if len(privs) == 0 {
		return "all"
	}
	if len(privs) > 1 {
		return "privilege"
	}
	ap, ok := privs[0].Node.(*pg_query.Node_AccessPriv)
	if !ok || ap.AccessPriv == nil {
		return "privilege"
	}
	switch name := strings.ToLower(ap.AccessPriv.GetPrivName()); name {
	case "select", "insert", "update", "delete":
		return name
	case "":
		return "all"
	default:
		return "privilege"
	}
}

// transactionCommand renders a TransactionStmt's Kind as the Command enum.
// Only BEGIN/COMMIT/ROLLBACK/SAVEPOINT matter to the validator (which
// rejects the whole batch on sight of any of them); the rest fold to
// ROLLBACK's sibling commands for logging purposes only.
func transactionCommand(kind pg_query.TransactionStmtKind) Command {
	switch kind {
	case pg_query.TransactionStmtKind_TRANS_STMT_BEGIN, pg_query.TransactionStmtKind_TRANS_STMT_START:
		return CommandBegin
	case pg_query.TransactionStmtKind_TRANS_STMT_COMMIT, pg_query.TransactionStmtKind_TRANS_STMT_COMMIT_PREPARED:
		return CommandCommit
	case pg_query.TransactionStmtKind_TRANS_STMT_ROLLBACK, pg_query.TransactionStmtKind_TRANS_STMT_ROLLBACK_PREPARED, pg_query.TransactionStmtKind_TRANS_STMT_ROLLBACK_TO:
		return CommandRollback
	case pg_query.TransactionStmtKind_TRANS_STMT_SAVEPOINT, pg_query.TransactionStmtKind_TRANS_STMT_RELEASE:
		return CommandSavepoint
	default:
		return CommandUnknown
	}
}
