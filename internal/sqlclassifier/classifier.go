// Package sqlclassifier maps a pg_query parse-tree node to a classified
// statement: category, command, risk level, migration requirement and
// (when discoverable) object metadata. It is the Go rendering of spec.md
// §4.1 — a closed lookup table keyed by node type, not a general-purpose
// SQL analyzer.
//
// The node-type dispatch mirrors the pattern in pganalyze/pg_query_go-based
// analyzers: a type switch over *pg_query.Node_XxxStmt variants. See
// other_examples/...nnaka2992-pg-lock-check...analyzer.go in the retrieval
// pack for the grounding example this package follows.
package sqlclassifier

import (
	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/dmitrymomot/pgsentry/internal/risk"
)

// Category is the SQL sub-language a statement belongs to.
type Category string

const (
	CategoryDQL             Category = "DQL"
	CategoryDML             Category = "DML"
	CategoryDDL             Category = "DDL"
	CategoryTCL             Category = "TCL"
	CategoryDCL             Category = "DCL"
	CategoryPostgresSpecific Category = "POSTGRES_SPECIFIC"
	CategoryOther           Category = "OTHER"
)

// Command is the normalized statement verb.
type Command string

const (
	CommandSelect     Command = "SELECT"
	CommandInsert     Command = "INSERT"
	CommandUpdate     Command = "UPDATE"
	CommandDelete     Command = "DELETE"
	CommandMerge      Command = "MERGE"
	CommandCreate     Command = "CREATE"
	CommandAlter      Command = "ALTER"
	CommandDrop       Command = "DROP"
	CommandTruncate   Command = "TRUNCATE"
	CommandComment    Command = "COMMENT"
	CommandRename     Command = "RENAME"
	CommandGrant      Command = "GRANT"
	CommandRevoke     Command = "REVOKE"
	CommandBegin      Command = "BEGIN"
	CommandCommit     Command = "COMMIT"
	CommandRollback   Command = "ROLLBACK"
	CommandSavepoint  Command = "SAVEPOINT"
	CommandVacuum     Command = "VACUUM"
	CommandAnalyze    Command = "ANALYZE"
	CommandExplain    Command = "EXPLAIN"
	CommandCopy       Command = "COPY"
	CommandListen     Command = "LISTEN"
	CommandNotify     Command = "NOTIFY"
	CommandPrepare    Command = "PREPARE"
	CommandExecute    Command = "EXECUTE"
	CommandDeallocate Command = "DEALLOCATE"
	CommandUnknown    Command = "UNKNOWN"
)

// Statement is the result of classifying a single top-level node. It does
// not yet carry the source-text span or final schema default — the
// validator fills those in (see sqlvalidator.Statement).
type Statement struct {
	Category       Category
	Command        Command
	Risk           risk.Level
	NeedsMigration bool
	ObjectType     string // e.g. "table", "function", "index"; empty if not discoverable
	Schema         string // empty if the node doesn't disclose one; validator defaults to "public"
	ObjectName     string // best-effort, used by the migration name deriver as a fallback
	UpdateColumns  []string
	Privilege      string // GRANT/REVOKE only: select, insert, update, delete, all, or "privilege" for a mixed set
}

// Classify inspects a single parsed node and returns its classification.
// Unknown node types classify as OTHER/MEDIUM (fail safe) per §4.1.
func Classify(node *pg_query.Node) Statement {
	if node == nil {
		return Statement{Category: CategoryOther, Command: CommandUnknown, Risk: risk.Medium}
	}

	switch n := node.Node.(type) {
	// --- Reads ---
	case *pg_query.Node_SelectStmt:
		return Statement{Category: CategoryDQL, Command: CommandSelect, Risk: risk.Low}
	case *pg_query.Node_ExplainStmt:
		return Statement{Category: CategoryDQL, Command: CommandExplain, Risk: risk.Low}

	// --- Data writes ---
	case *pg_query.Node_InsertStmt:
		s := Statement{Category: CategoryDML, Command: CommandInsert, Risk: risk.Medium}
		applyRangeVar(&s, n.InsertStmt.GetRelation(), "table")
		return s
	case *pg_query.Node_UpdateStmt:
		s := Statement{Category: CategoryDML, Command: CommandUpdate, Risk: risk.Medium}
		applyRangeVar(&s, n.UpdateStmt.GetRelation(), "table")
		s.UpdateColumns = targetListColumns(n.UpdateStmt.GetTargetList())
		return s
	case *pg_query.Node_DeleteStmt:
		s := Statement{Category: CategoryDML, Command: CommandDelete, Risk: risk.Medium}
		applyRangeVar(&s, n.DeleteStmt.GetRelation(), "table")
		return s
	case *pg_query.Node_MergeStmt:
		s := Statement{Category: CategoryDML, Command: CommandMerge, Risk: risk.Medium}
		applyRangeVar(&s, n.MergeStmt.GetRelation(), "table")
		return s

	// --- COPY: direction-dependent ---
	case *pg_query.Node_CopyStmt:
		s := Statement{}
		applyRangeVar(&s, n.CopyStmt.GetRelation(), "table")
		if n.CopyStmt.GetIsFrom() {
			s.Category, s.Command, s.Risk = CategoryDML, CommandCopy, risk.Medium
		} else {
			s.Category, s.Command, s.Risk = CategoryDQL, CommandCopy, risk.Low
		}
		return s

	// --- Schema changes (reversible-ish) ---
	case *pg_query.Node_CreateStmt:
		s := ddl(CommandCreate, "table")
		applyRangeVar(&s, n.CreateStmt.GetRelation(), "table")
		return s
	case *pg_query.Node_AlterTableStmt:
		s := ddl(CommandAlter, "table")
		applyRangeVar(&s, n.AlterTableStmt.GetRelation(), "table")
		return s
	case *pg_query.Node_IndexStmt:
		s := ddl(CommandCreate, "index")
		applyRangeVar(&s, n.IndexStmt.GetRelation(), "index")
		if s.ObjectName == "" {
			s.ObjectName = n.IndexStmt.GetIdxname()
		}
		return s
	case *pg_query.Node_ViewStmt:
		s := ddl(CommandCreate, "view")
		applyRangeVar(&s, n.ViewStmt.GetView(), "view")
		return s
	case *pg_query.Node_CreateFunctionStmt:
		objType := "function"
		if n.CreateFunctionStmt.GetIsProcedure() {
			objType = "procedure"
		}
		s := ddl(CommandCreate, objType)
		s.ObjectName = lastNamePart(n.CreateFunctionStmt.GetFuncname())
		return s
	case *pg_query.Node_CreateTrigStmt:
		s := ddl(CommandCreate, "trigger")
		applyRangeVar(&s, n.CreateTrigStmt.GetRelation(), "trigger")
		if s.ObjectName == "" {
			s.ObjectName = n.CreateTrigStmt.GetTrigname()
		}
		return s
	case *pg_query.Node_CreateEnumStmt:
		s := ddl(CommandCreate, "type")
		s.ObjectName, s.Schema = splitSchemaQualifiedList(n.CreateEnumStmt.GetTypeName())
		return s
	case *pg_query.Node_CreateStatsStmt:
		return ddl(CommandCreate, "statistics")
	case *pg_query.Node_CompositeTypeStmt:
		s := ddl(CommandCreate, "type")
		applyRangeVar(&s, n.CompositeTypeStmt.GetTypevar(), "type")
		return s
	case *pg_query.Node_CreateDomainStmt:
		s := ddl(CommandCreate, "domain")
		s.ObjectName, s.Schema = splitSchemaQualifiedList(n.CreateDomainStmt.GetDomainname())
		return s
	case *pg_query.Node_CreateSeqStmt:
		s := ddl(CommandCreate, "sequence")
		applyRangeVar(&s, n.CreateSeqStmt.GetSequence(), "sequence")
		return s
	case *pg_query.Node_CreateForeignTableStmt:
		s := ddl(CommandCreate, "foreign table")
		applyRangeVar(&s, n.CreateForeignTableStmt.GetBase().GetRelation(), "foreign table")
		return s
	case *pg_query.Node_CreatePolicyStmt:
		s := ddl(CommandCreate, "policy")
		applyRangeVar(&s, n.CreatePolicyStmt.GetTable(), "policy")
		if s.ObjectName != "" {
			s.ObjectName = n.CreatePolicyStmt.GetPolicyName() + " on " + s.ObjectName
		} else {
			s.ObjectName = n.CreatePolicyStmt.GetPolicyName()
		}
		return s
	case *pg_query.Node_CreateExtensionStmt:
		s := ddl(CommandCreate, "extension")
		s.ObjectName = n.CreateExtensionStmt.GetExtname()
		return s
	case *pg_query.Node_CreateSchemaStmt:
		s := ddl(CommandCreate, "schema")
		s.ObjectName = n.CreateSchemaStmt.GetSchemaname()
		s.Schema = s.ObjectName
		return s
	case *pg_query.Node_CommentStmt:
		s := ddl(CommandComment, objectTypeName(n.CommentStmt.GetObjtype()))
		return s
	case *pg_query.Node_RenameStmt:
		s := ddl(CommandRename, objectTypeName(n.RenameStmt.GetRenameType()))
		applyRangeVar(&s, n.RenameStmt.GetRelation(), s.ObjectType)
		if s.ObjectName == "" {
			s.ObjectName = n.RenameStmt.GetSubname()
		}
		return s
	case *pg_query.Node_AlterEnumStmt:
		s := ddl(CommandAlter, "type")
		s.ObjectName, s.Schema = splitSchemaQualifiedList(n.AlterEnumStmt.GetTypeName())
		return s
	case *pg_query.Node_AlterSeqStmt:
		s := ddl(CommandAlter, "sequence")
		applyRangeVar(&s, n.AlterSeqStmt.GetSequence(), "sequence")
		return s
	case *pg_query.Node_AlterOwnerStmt:
		s := ddl(CommandAlter, objectTypeName(n.AlterOwnerStmt.GetObjectType()))
		applyRangeVar(&s, n.AlterOwnerStmt.GetRelation(), s.ObjectType)
		return s
	case *pg_query.Node_AlterObjectSchemaStmt:
		s := ddl(CommandAlter, objectTypeName(n.AlterObjectSchemaStmt.GetObjectType()))
		applyRangeVar(&s, n.AlterObjectSchemaStmt.GetRelation(), s.ObjectType)
		return s

	// --- Destructive schema changes ---
	case *pg_query.Node_DropStmt:
		s := Statement{Category: CategoryDDL, Command: CommandDrop, Risk: risk.High, NeedsMigration: true}
		s.ObjectType = objectTypeName(n.DropStmt.GetRemoveType())
		s.ObjectName, s.Schema = splitSchemaQualified(firstDropObject(n.DropStmt.GetObjects()))
		return s
	case *pg_query.Node_TruncateStmt:
		s := Statement{Category: CategoryDDL, Command: CommandTruncate, Risk: risk.High, NeedsMigration: true, ObjectType: "table"}
		if rels := n.TruncateStmt.GetRelations(); len(rels) > 0 {
			applyRangeVar(&s, asRangeVar(rels[0]), "table")
		}
		return s
	case *pg_query.Node_DropRoleStmt:
		s := Statement{Category: CategoryDCL, Command: CommandDrop, Risk: risk.High, NeedsMigration: true, ObjectType: "role"}
		s.ObjectName = lastRoleName(n.DropRoleStmt.GetRoles())
		return s

	// --- Access control ---
	case *pg_query.Node_GrantStmt:
		cmd := CommandGrant
		if !n.GrantStmt.GetIsGrant() {
			cmd = CommandRevoke
		}
		s := Statement{Category: CategoryDCL, Command: cmd, Risk: risk.Medium, NeedsMigration: true, ObjectType: objectTypeName(n.GrantStmt.GetObjtype())}
		s.ObjectName, s.Schema = splitSchemaQualified(firstDropObject(n.GrantStmt.GetObjects()))
		s.Privilege = privilegeName(n.GrantStmt.GetPrivileges())
		return s
	case *pg_query.Node_CreateRoleStmt:
		return Statement{Category: CategoryDCL, Command: CommandCreate, Risk: risk.Medium, NeedsMigration: true, ObjectType: "role", ObjectName: n.CreateRoleStmt.GetRole()}
	case *pg_query.Node_AlterRoleStmt:
		s := Statement{Category: CategoryDCL, Command: CommandAlter, Risk: risk.Medium, NeedsMigration: true, ObjectType: "role"}
		if rs := n.AlterRoleStmt.GetRole(); rs != nil {
			s.ObjectName = rs.GetRolename()
		}
		return s

	// --- Transaction control (outer validator rejects the whole batch) ---
	case *pg_query.Node_TransactionStmt:
		return Statement{Category: CategoryTCL, Command: transactionCommand(n.TransactionStmt.GetKind()), Risk: risk.Low}

	// --- Postgres-specific ---
	case *pg_query.Node_VacuumStmt:
		if n.VacuumStmt.GetIsVacuumcmd() {
			return Statement{Category: CategoryPostgresSpecific, Command: CommandVacuum, Risk: risk.Medium}
		}
		return Statement{Category: CategoryPostgresSpecific, Command: CommandAnalyze, Risk: risk.Low}
	case *pg_query.Node_ClusterStmt:
		s := Statement{Category: CategoryPostgresSpecific, Command: CommandVacuum, Risk: risk.Medium, ObjectType: "table"}
		applyRangeVar(&s, n.ClusterStmt.GetRelation(), "table")
		return s
	case *pg_query.Node_CheckPointStmt:
		return Statement{Category: CategoryPostgresSpecific, Command: CommandVacuum, Risk: risk.Medium}
	case *pg_query.Node_PrepareStmt:
		return Statement{Category: CategoryPostgresSpecific, Command: CommandPrepare, Risk: risk.Low, ObjectName: n.PrepareStmt.GetName()}
	case *pg_query.Node_DeallocateStmt:
		return Statement{Category: CategoryPostgresSpecific, Command: CommandDeallocate, Risk: risk.Low, ObjectName: n.DeallocateStmt.GetName()}
	case *pg_query.Node_ListenStmt:
		return Statement{Category: CategoryPostgresSpecific, Command: CommandListen, Risk: risk.Low, ObjectName: n.ListenStmt.GetConditionname()}
	case *pg_query.Node_NotifyStmt:
		return Statement{Category: CategoryPostgresSpecific, Command: CommandNotify, Risk: risk.Medium, ObjectName: n.NotifyStmt.GetConditionname()}
	case *pg_query.Node_ExecuteStmt:
		return Statement{Category: CategoryPostgresSpecific, Command: CommandExecute, Risk: risk.Medium, ObjectName: n.ExecuteStmt.GetName()}

	// RawStmt wraps the actual node when walking pg_query.ParseResult.Stmts
	// directly instead of through a pre-unwrapped slice.
	case *pg_query.Node_RawStmt:
		if n.RawStmt != nil {
			return Classify(n.RawStmt.GetStmt())
		}
	}

	return Statement{Category: CategoryOther, Command: CommandUnknown, Risk: risk.Medium}
}

func ddl(cmd Command, objType string) Statement {
	return Statement{Category: CategoryDDL, Command: cmd, Risk: risk.Medium, NeedsMigration: true, ObjectType: objType}
}
