package tree

// slotSet records which slots a kind may carry. The table below is the
// single authority: accessors, traversal, rewrite, copy and
// serialization are all driven by it.
type slotSet uint32

const (
	slotIdent slotSet = 1 << iota
	slotIdent2
	slotPorts
	slotGenerics
	slotDecls
	slotStmts
	slotElses
	slotTriggers
	slotWaveforms
	slotDrivers
	slotContexts
	slotParams
	slotGenmaps
	slotAssocs
	slotTarget
	slotValue
	slotDelay
	slotMessage
	slotSeverity
	slotRef
	slotName
	slotSpec
	slotReject
	slotGuard
	slotRange
	slotType
	slotLiteral
	slotPos
	slotPortMode
	slotClass
	slotAttrKind
	slotSubKind
)

var slotNames = map[slotSet]string{
	slotIdent:     "ident",
	slotIdent2:    "ident2",
	slotPorts:     "ports",
	slotGenerics:  "generics",
	slotDecls:     "decls",
	slotStmts:     "stmts",
	slotElses:     "else_stmts",
	slotTriggers:  "triggers",
	slotWaveforms: "waveforms",
	slotDrivers:   "drivers",
	slotContexts:  "contexts",
	slotParams:    "params",
	slotGenmaps:   "genmaps",
	slotAssocs:    "assocs",
	slotTarget:    "target",
	slotValue:     "value",
	slotDelay:     "delay",
	slotMessage:   "message",
	slotSeverity:  "severity",
	slotRef:       "ref",
	slotName:      "name",
	slotSpec:      "spec",
	slotReject:    "reject",
	slotGuard:     "guard",
	slotRange:     "range",
	slotType:      "type",
	slotLiteral:   "literal",
	slotPos:       "pos",
	slotPortMode:  "port mode",
	slotClass:     "class",
	slotAttrKind:  "attribute kind",
	slotSubKind:   "subprogram kind",
}

var kindSlots = [lastKind]slotSet{
	TEntity:   slotIdent | slotPorts | slotGenerics | slotContexts,
	TArch:     slotIdent | slotIdent2 | slotContexts | slotDecls | slotStmts,
	TPackage:  slotIdent | slotContexts | slotDecls,
	TPackBody: slotIdent | slotContexts | slotDecls,
	TElab:     slotIdent | slotDecls | slotStmts,

	TPortDecl:   slotIdent | slotType | slotValue | slotPortMode | slotClass,
	TSignalDecl: slotIdent | slotType | slotValue | slotDrivers,
	TVarDecl:    slotIdent | slotType | slotValue,
	TConstDecl:  slotIdent | slotType | slotValue,
	TTypeDecl:   slotIdent | slotType,
	TUnitDecl:   slotIdent | slotType | slotValue,
	TEnumLit:    slotIdent | slotType | slotPos,
	TAlias:      slotIdent | slotType | slotValue,
	TFuncDecl:   slotIdent | slotIdent2 | slotType | slotPorts | slotSubKind,
	TFuncBody:   slotIdent | slotIdent2 | slotType | slotPorts | slotDecls | slotStmts | slotSubKind,
	TProcDecl:   slotIdent | slotIdent2 | slotPorts | slotSubKind,
	TProcBody:   slotIdent | slotIdent2 | slotPorts | slotDecls | slotStmts | slotSubKind,
	TLibrary:    slotIdent | slotIdent2,

	TProcess:      slotIdent | slotDecls | slotStmts | slotTriggers,
	TBlock:        slotIdent | slotPorts | slotGenerics | slotGenmaps | slotDecls | slotStmts,
	TInstance:     slotIdent | slotIdent2 | slotRef | slotParams | slotGenmaps | slotSpec | slotClass,
	TBinding:      slotIdent | slotIdent2 | slotRef | slotParams | slotGenmaps | slotClass,
	TIf:           slotIdent | slotValue | slotStmts | slotElses,
	TWhile:        slotIdent | slotValue | slotStmts,
	TFor:          slotIdent | slotIdent2 | slotRange | slotDecls | slotStmts,
	TCase:         slotIdent | slotValue | slotAssocs,
	TWait:         slotIdent | slotValue | slotDelay | slotTriggers,
	TVarAssign:    slotIdent | slotTarget | slotValue,
	TSignalAssign: slotIdent | slotTarget | slotWaveforms | slotReject,
	TCAssign:      slotIdent | slotTarget | slotWaveforms | slotReject | slotGuard,
	TSelect:       slotIdent | slotValue | slotAssocs | slotGuard,
	TAssert:       slotIdent | slotValue | slotSeverity | slotMessage,
	TCAssert:      slotIdent | slotValue | slotSeverity | slotMessage,
	TPCall:        slotIdent | slotIdent2 | slotRef | slotParams,
	TCPCall:       slotIdent | slotIdent2 | slotRef | slotParams,
	TNull:         slotIdent,
	TReturn:       slotIdent | slotValue,
	TIfGenerate:   slotIdent | slotValue | slotDecls | slotStmts,
	TUse:          slotIdent | slotRef,
	TCtxRef:       slotIdent | slotRef,

	TFCall:      slotIdent | slotRef | slotParams | slotType,
	TLiteral:    slotIdent | slotRef | slotType | slotLiteral,
	TRef:        slotIdent | slotRef | slotType,
	TAttrRef:    slotIdent | slotName | slotParams | slotValue | slotType | slotAttrKind,
	TArrayRef:   slotValue | slotParams | slotType,
	TArraySlice: slotValue | slotRange | slotType,
	TRecordRef:  slotIdent | slotValue | slotType,
	TQualified:  slotIdent | slotValue | slotType,
	TTypeConv:   slotIdent | slotValue | slotType,
	TAggregate:  slotAssocs | slotType,
	TOpen:       slotType,
	TWaveform:   slotValue | slotDelay,
}

// has reports whether kind k carries slot s.
func (k Kind) has(s slotSet) bool {
	return kindSlots[k]&s != 0
}
