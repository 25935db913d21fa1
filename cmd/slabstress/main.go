// Command slabstress runs concurrent workloads against slabkit arenas and
// allocators and reports throughput and free-list audit results.
package main

func main() {
	execute()
}
