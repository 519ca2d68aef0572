// Package milp is the mixed-integer linear programming service used by the
// commitment optimizer. A Model is described as variables with bounds, a
// linear objective to minimise and linear constraints. Solvers return an
// assignment together with a Status; callers never receive a partially
// feasible assignment.
//
// BranchAndBound solves the LP relaxations with gonum's simplex
// implementation and branches on the most fractional integer variable.
// Upper-bound rows of integer variables enter a relaxation only once its
// solution violates them. The context deadline interrupts a relaxation in
// progress.
package milp
