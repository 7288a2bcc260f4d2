package compiler

import "github.com/asc-lang/asc/lang/token"

// precedence orders the binding strength of expression operators,
// ascending. Construct, Delete and Path are parser states rather than
// levels a binary operator can occupy: Construct and Delete constrain
// what may follow new and delete, and Path makes '.' and '[' bind
// tighter than a call.
type precedence int

const (
	precNone precedence = iota
	precAssignment
	precBitwiseOr
	precBitwiseXor
	precBitwiseAnd
	precEquality
	precComparison
	precBitwiseShift
	precTerm
	precFactor
	precUnary
	precCall
	precConstruct
	precDelete
	precPath
	precPrimary
)

var kindPrec = map[token.Kind]precedence{
	token.PIPE:       precBitwiseOr,
	token.CIRCUMFLEX: precBitwiseXor,
	token.AMPERSAND:  precBitwiseAnd,
	token.EQL:        precEquality,
	token.SEQL:       precEquality,
	token.NEQ:        precEquality,
	token.LT:         precComparison,
	token.LE:         precComparison,
	token.GT:         precComparison,
	token.GE:         precComparison,
	token.INSTANCEOF: precComparison,
	token.LTLT:       precBitwiseShift,
	token.GTGT:       precBitwiseShift,
	token.GTGTGT:     precBitwiseShift,
	token.PLUS:       precTerm,
	token.MINUS:      precTerm,
	token.STAR:       precFactor,
	token.SLASH:      precFactor,
	token.PERCENT:    precFactor,
	token.TILDE:      precUnary,
	token.BANG:       precUnary,
	token.TYPEOF:     precUnary,
	token.LPAREN:     precCall,
	token.DOT:        precPath,
	token.LBRACK:     precPath,
}

// precOf returns the infix precedence of k; tokens that cannot appear
// in infix position are precNone.
func precOf(k token.Kind) precedence {
	return kindPrec[k]
}
