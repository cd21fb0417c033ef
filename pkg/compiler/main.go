// Package compiler turns stack-language source into GoCPU or AArch64
// assembly.
//
// Pipeline: source → Lex → Classify → Resolve → Generate → assembly text
//
// The language has integer literals, + - = ! -> and if/else/end blocks.
// Control flow is resolved per consumer: the code generator resolves to
// labels here, the interpreter in package interp resolves to addresses.
package compiler
