package santa

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDerangement_TooFewParticipants(t *testing.T) {
	_, err := Derangement(nil, nil)
	assert.ErrorIs(t, err, ErrTooFewParticipants)

	_, err = Derangement([]int{42}, nil)
	assert.ErrorIs(t, err, ErrTooFewParticipants)
}

func TestDerangement_TwoParticipantsSwap(t *testing.T) {
	assignment, err := Derangement([]int{1, 2}, nil)
	require.NoError(t, err)

	assert.Equal(t, map[int]int{1: 2, 2: 1}, assignment)
}

func TestDerangement_NoSelfMatch(t *testing.T) {
	ids := []int{10, 20, 30, 40, 50, 60, 70}
	for i := 0; i < 200; i++ {
		assignment, err := Derangement(ids, nil)
		require.NoError(t, err)
		require.Len(t, assignment, len(ids))
		for giver, recipient := range assignment {
			assert.NotEqual(t, giver, recipient, "giver %d must not gift themselves", giver)
		}
	}
}

func TestDerangement_SingleCycle(t *testing.T) {
	ids := []int{1, 2, 3, 4, 5}
	for i := 0; i < 100; i++ {
		assignment, err := Derangement(ids, nil)
		require.NoError(t, err)

		// Проход по циклу из любой точки должен вернуть в начало ровно
		// через len(ids) шагов, посетив всех.
		seen := map[int]bool{}
		cur := ids[0]
		for step := 0; step < len(ids); step++ {
			require.False(t, seen[cur], "node %d visited twice, mapping is not a single cycle", cur)
			seen[cur] = true
			cur = assignment[cur]
		}
		assert.Equal(t, ids[0], cur, "cycle must close after %d steps", len(ids))
	}
}

func TestDerangement_Injective(t *testing.T) {
	ids := []int{3, 1, 4, 15, 9, 26}
	assignment, err := Derangement(ids, nil)
	require.NoError(t, err)

	recipients := map[int]bool{}
	for _, recipient := range assignment {
		assert.False(t, recipients[recipient], "recipient %d assigned to two givers", recipient)
		recipients[recipient] = true
	}
}

func TestDerangement_DeterministicWithFixedSource(t *testing.T) {
	// intn всегда возвращает 0: Саттоло даёт цикл, сдвинутый ротацией.
	zero := func(n int) int { return 0 }

	a, err := Derangement([]int{1, 2, 3, 4}, zero)
	require.NoError(t, err)
	b, err := Derangement([]int{1, 2, 3, 4}, zero)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestCycleCompletion_NoPartialAssignmentsEqualsDerangement(t *testing.T) {
	ids := []int{7, 8, 9}
	assignment, err := CycleCompletion(ids, nil, nil)
	require.NoError(t, err)
	require.Len(t, assignment, 3)
	for giver, recipient := range assignment {
		assert.NotEqual(t, giver, recipient)
	}
}

func TestCycleCompletion_RespectsExistingAssignments(t *testing.T) {
	// Участник 1 уже вытянул участника 2. Ждут жеребьёвки 2, 3 и 4.
	// Получателя 2 занимать повторно нельзя, и никто не должен достаться
	// сам себе.
	recipientOf := map[int]int{1: 2}
	waiting := []int{2, 3, 4}

	for i := 0; i < 200; i++ {
		assignment, err := CycleCompletion(waiting, recipientOf, nil)
		require.NoError(t, err)
		require.Len(t, assignment, 3)

		taken := map[int]bool{2: true} // занят участником 1
		for _, giver := range waiting {
			recipient := assignment[giver]
			assert.NotEqual(t, giver, recipient, "giver %d must not gift themselves", giver)
			assert.False(t, taken[recipient], "recipient %d already has a giver", recipient)
			taken[recipient] = true
		}
	}
}

func TestCycleCompletion_ChainOfAssignments(t *testing.T) {
	// Цепочка 1 -> 2 -> 3 уже существует; ждут 3, 4, 5.
	// Свободные получатели: 1 (голова цепочки), 4 и 5.
	recipientOf := map[int]int{1: 2, 2: 3}
	waiting := []int{3, 4, 5}

	for i := 0; i < 200; i++ {
		assignment, err := CycleCompletion(waiting, recipientOf, nil)
		require.NoError(t, err)

		taken := map[int]bool{2: true, 3: true}
		for _, giver := range waiting {
			recipient := assignment[giver]
			require.NotEqual(t, giver, recipient)
			require.False(t, taken[recipient], "recipient %d already has a giver", recipient)
			taken[recipient] = true
		}
		// Все пять участников в итоге получили ровно одного получателя.
		assert.Len(t, taken, 5)
	}
}

func TestCycleCompletion_TooFewWaiting(t *testing.T) {
	_, err := CycleCompletion([]int{5}, map[int]int{1: 5}, nil)
	assert.ErrorIs(t, err, ErrTooFewParticipants)
}

func TestPick_UniformWithinPool(t *testing.T) {
	pool := []int{11, 22, 33}
	seen := map[int]bool{}
	for i := 0; i < 300; i++ {
		v := Pick(pool, nil)
		assert.Contains(t, pool, v)
		seen[v] = true
	}
	// За 300 попыток все три элемента должны встретиться.
	assert.Len(t, seen, 3)
}

func TestPick_DeterministicSource(t *testing.T) {
	last := func(n int) int { return n - 1 }
	assert.Equal(t, 33, Pick([]int{11, 22, 33}, last))
}
