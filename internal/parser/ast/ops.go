package ast

// BinaryOp is the closed set of infix operators.
type BinaryOp int

const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpAnd
	OpOr
)

var binaryOpSymbols = [...]string{
	OpAdd: "+",
	OpSub: "-",
	OpMul: "*",
	OpDiv: "/",
	OpMod: "%",
	OpEq:  "==",
	OpNe:  "!=",
	OpLt:  "<",
	OpLe:  "<=",
	OpGt:  ">",
	OpGe:  ">=",
	OpAnd: "&&",
	OpOr:  "||",
}

// String returns the operator's source spelling.
func (op BinaryOp) String() string {
	if op >= 0 && int(op) < len(binaryOpSymbols) {
		return binaryOpSymbols[op]
	}
	return "?"
}

// IsArithmetic reports whether op is one of + - * / %.
func (op BinaryOp) IsArithmetic() bool {
	return op >= OpAdd && op <= OpMod
}

// IsEquality reports whether op is == or !=.
func (op BinaryOp) IsEquality() bool {
	return op == OpEq || op == OpNe
}

// IsOrdering reports whether op is one of < <= > >=.
func (op BinaryOp) IsOrdering() bool {
	return op >= OpLt && op <= OpGe
}

// IsComparison reports whether op yields a bool from two operands of the
// same type.
func (op BinaryOp) IsComparison() bool {
	return op.IsEquality() || op.IsOrdering()
}

// IsLogical reports whether op is && or ||.
func (op BinaryOp) IsLogical() bool {
	return op == OpAnd || op == OpOr
}

// UnaryOp is the closed set of prefix operators.
type UnaryOp int

const (
	OpNeg UnaryOp = iota // -x
	OpPos                // +x
	OpNot                // !x
)

func (op UnaryOp) String() string {
	switch op {
	case OpNeg:
		return "-"
	case OpPos:
		return "+"
	case OpNot:
		return "!"
	default:
		return "?"
	}
}
