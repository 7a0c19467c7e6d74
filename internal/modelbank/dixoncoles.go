package modelbank

// dixonColesTau returns the low-score correction of Dixon & Coles
// (1997): only the 0-0, 1-0, 0-1 and 1-1 cells are adjusted, controlled
// by the correlation parameter rho.
func dixonColesTau(lambdaHome, lambdaAway, rho float64) tauFunc {
	return func(homeGoals, awayGoals int) float64 {
		switch {
		case homeGoals == 0 && awayGoals == 0:
			return 1 - lambdaHome*lambdaAway*rho
		case homeGoals == 0 && awayGoals == 1:
			return 1 + lambdaHome*rho
		case homeGoals == 1 && awayGoals == 0:
			return 1 + lambdaAway*rho
		case homeGoals == 1 && awayGoals == 1:
			return 1 - rho
		default:
			return 1
		}
	}
}
