package syntax

// Grammar kind names of tree-sitter-python the package's callers dispatch on.
const (
	KindModule = "module"

	// Statements
	KindExpressionStatement   = "expression_statement"
	KindAssignment            = "assignment"
	KindAugmentedAssignment   = "augmented_assignment"
	KindFunctionDefinition    = "function_definition"
	KindClassDefinition       = "class_definition"
	KindDecoratedDefinition   = "decorated_definition"
	KindIfStatement           = "if_statement"
	KindElifClause            = "elif_clause"
	KindElseClause            = "else_clause"
	KindWhileStatement        = "while_statement"
	KindForStatement          = "for_statement"
	KindTryStatement          = "try_statement"
	KindExceptClause          = "except_clause"
	KindExceptGroupClause     = "except_group_clause"
	KindFinallyClause         = "finally_clause"
	KindWithStatement         = "with_statement"
	KindWithClause            = "with_clause"
	KindWithItem              = "with_item"
	KindMatchStatement        = "match_statement"
	KindCaseClause            = "case_clause"
	KindReturnStatement       = "return_statement"
	KindRaiseStatement        = "raise_statement"
	KindPassStatement         = "pass_statement"
	KindBreakStatement        = "break_statement"
	KindContinueStatement     = "continue_statement"
	KindGlobalStatement       = "global_statement"
	KindNonlocalStatement     = "nonlocal_statement"
	KindDeleteStatement       = "delete_statement"
	KindImportStatement       = "import_statement"
	KindImportFromStatement   = "import_from_statement"
	KindFutureImportStatement = "future_import_statement"
	KindAssertStatement       = "assert_statement"
	KindTypeAliasStatement    = "type_alias_statement"
	KindBlock                 = "block"

	// Expressions
	KindIdentifier         = "identifier"
	KindAttribute          = "attribute"
	KindSubscript          = "subscript"
	KindCall               = "call"
	KindLambda             = "lambda"
	KindNamedExpression    = "named_expression"
	KindBooleanOperator    = "boolean_operator"
	KindNotOperator        = "not_operator"
	KindComparisonOperator = "comparison_operator"
	KindTuple              = "tuple"
	KindList               = "list"
	KindString             = "string"
	KindInteger            = "integer"
	KindFloat              = "float"
	KindTrue               = "true"
	KindFalse              = "false"
	KindNone               = "none"
	KindEllipsis           = "ellipsis"
	KindParenthesized      = "parenthesized_expression"
	KindExpressionList     = "expression_list"

	// Comprehensions
	KindListComprehension       = "list_comprehension"
	KindSetComprehension        = "set_comprehension"
	KindDictionaryComprehension = "dictionary_comprehension"
	KindGeneratorExpression     = "generator_expression"
	KindForInClause             = "for_in_clause"
	KindIfClause                = "if_clause"

	// Targets and parameters
	KindPatternList            = "pattern_list"
	KindTuplePattern           = "tuple_pattern"
	KindListPattern            = "list_pattern"
	KindListSplatPattern       = "list_splat_pattern"
	KindDictionarySplatPattern = "dictionary_splat_pattern"
	KindDefaultParameter       = "default_parameter"
	KindTypedParameter         = "typed_parameter"
	KindTypedDefaultParameter  = "typed_default_parameter"
	KindKeywordSeparator       = "keyword_separator"
	KindPositionalSeparator    = "positional_separator"
	KindTypeNode               = "type"

	// Imports
	KindDottedName     = "dotted_name"
	KindAliasedImport  = "aliased_import"
	KindWildcardImport = "wildcard_import"

	// Match patterns
	KindCasePattern     = "case_pattern"
	KindAsPattern       = "as_pattern"
	KindAsPatternTarget = "as_pattern_target"
	KindUnionPattern    = "union_pattern"
	KindClassPattern    = "class_pattern"
	KindDictPattern     = "dict_pattern"
	KindSplatPattern    = "splat_pattern"
	KindKeywordPattern  = "keyword_pattern"
)
