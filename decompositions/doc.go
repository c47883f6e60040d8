// Package decompositions holds the rewrite rules used by the AutoReplacer.
//
// Rules are collected in a Registry by explicit Register calls, keyed by a
// short module name such as "diag2ucr". Setups pick modules by name and turn
// them into an engine.RuleSet once, before the first command flows.
package decompositions
