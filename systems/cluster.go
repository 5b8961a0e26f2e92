package systems

// Clusters partitions agents into connected components: two agents
// share a cluster when a path of same-state agents links them, every
// hop strictly closer than radius. Each agent lands in exactly one
// cluster; isolated agents form singletons. The partition is a per-step
// diagnostic and feeds nothing back into the simulation.
func Clusters(agents []AgentView, radius float64) [][]int {
	visited := make([]bool, len(agents))
	radiusSq := radius * radius
	var clusters [][]int

	for i := range agents {
		if visited[i] {
			continue
		}
		visited[i] = true
		cluster := []int{i}
		frontier := []int{i}

		for len(frontier) > 0 {
			cur := frontier[len(frontier)-1]
			frontier = frontier[:len(frontier)-1]

			for j := range agents {
				if visited[j] || agents[j].State != agents[cur].State {
					continue
				}
				dx := agents[j].X - agents[cur].X
				dy := agents[j].Y - agents[cur].Y
				if dx*dx+dy*dy < radiusSq {
					visited[j] = true
					cluster = append(cluster, j)
					frontier = append(frontier, j)
				}
			}
		}

		clusters = append(clusters, cluster)
	}

	return clusters
}

// LargestCluster returns the size of the biggest cluster in a
// partition, or zero for an empty population.
func LargestCluster(clusters [][]int) int {
	largest := 0
	for _, c := range clusters {
		if len(c) > largest {
			largest = len(c)
		}
	}
	return largest
}
